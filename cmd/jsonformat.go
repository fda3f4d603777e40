package cmd

import (
	"spectree/internal/gate"
	"spectree/internal/registry"
	"spectree/internal/specdoc"
)

// Result is the envelope every command emits in --json mode.
type Result struct {
	Success  bool           `json:"success"`
	Errors   []ErrorJSON    `json:"errors"`
	Decision *gate.Decision `json:"decision,omitempty"`
}

// ErrorJSON is one violation in JSON output.
type ErrorJSON struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SpecJSON is the JSON output format for list and show commands.
type SpecJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Created   string   `json:"created"`
	Completed string   `json:"completed,omitempty"`
	Issue     string   `json:"issue,omitempty"`
	Scope     []string `json:"scope,omitempty"`
	Path      string   `json:"path"`
}

// toResult converts violations into the JSON envelope. An empty error
// list still encodes as [] rather than null.
func toResult(violations []registry.Violation) Result {
	errs := make([]ErrorJSON, 0, len(violations))
	for _, v := range violations {
		errs = append(errs, ErrorJSON{
			Kind:    string(v.Kind),
			Path:    v.Path,
			Field:   v.Field,
			Message: v.Message,
		})
	}
	return Result{Success: len(violations) == 0, Errors: errs}
}

// ToSpecJSON converts a specdoc.Spec to SpecJSON format.
func ToSpecJSON(spec *specdoc.Spec) SpecJSON {
	out := SpecJSON{
		ID:      spec.ID,
		Title:   spec.Title,
		Type:    string(spec.Type),
		Status:  string(spec.Status),
		Created: spec.Created.Format("2006-01-02"),
		Issue:   spec.IssueRef,
		Scope:   spec.Scope,
		Path:    spec.Path,
	}
	if spec.Completed != nil {
		out.Completed = spec.Completed.Format("2006-01-02")
	}
	return out
}
