package specdoc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrorKind is the stable category of a parse failure.
type ErrorKind string

const (
	ErrMissingFrontMatter ErrorKind = "MissingFrontMatter"
	ErrInvalidField       ErrorKind = "InvalidField"
	ErrUnknownStatus      ErrorKind = "UnknownStatus"
)

// ParseError describes a single malformed document. Parse failures are
// local: callers batch-scanning a tree collect them and keep going.
type ParseError struct {
	Kind    ErrorKind
	Path    string
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Field, e.Message)
}

// placeholderRefs are issue ref values left behind by templates. A spec
// must reference a real issue, not a fill-me-in marker.
var placeholderRefs = map[string]bool{
	"PROJ-XXX":   true,
	"[PROJ-XXX]": true,
	"TODO":       true,
	"{{ISSUE}}":  true,
}

// placeholderLine matches a raw, unquoted template placeholder in the
// issue field. `issue: {{ISSUE}}` is not valid YAML, so it has to be
// recognized before decoding to be reported as the placeholder it is.
var placeholderLine = regexp.MustCompile(`(?m)^issue:[ \t]*(\{\{[^}\n]*\}\})[ \t]*\r?$`)

// specFrontMatter is the loose decode target for spec front matter.
// Unknown extra keys are tolerated for forward compatibility; required
// fields and closed enums are enforced after decoding.
type specFrontMatter struct {
	ID        any      `yaml:"id"`
	Title     string   `yaml:"title"`
	Type      string   `yaml:"type"`
	Status    string   `yaml:"status"`
	Created   string   `yaml:"created"`
	Completed string   `yaml:"completed"`
	Issue     any      `yaml:"issue"`
	Plan      string   `yaml:"plan"`
	Scope     []string `yaml:"scope"`
}

type issueFrontMatter struct {
	ID        any    `yaml:"id"`
	Title     string `yaml:"title"`
	Status    string `yaml:"status"`
	Priority  string `yaml:"priority"`
	Created   string `yaml:"created"`
	Completed string `yaml:"completed"`
}

type planFrontMatter struct {
	TestReview string `yaml:"test_review"`
}

// ParseSpec decodes one spec document. The path is recorded on the
// result and used in error messages.
func ParseSpec(path string, raw []byte) (*Spec, error) {
	fm, body, err := extractFrontMatter(path, raw)
	if err != nil {
		if m := placeholderLine.FindSubmatch(raw); m != nil {
			return nil, &ParseError{
				Kind: ErrInvalidField, Path: path, Field: "issue",
				Message: fmt.Sprintf("issue ref %q is a template placeholder", m[1]),
			}
		}
		return nil, err
	}

	var f specFrontMatter
	if err := fm.Decode(&f); err != nil {
		if m := placeholderLine.FindSubmatch(raw); m != nil {
			return nil, &ParseError{
				Kind: ErrInvalidField, Path: path, Field: "issue",
				Message: fmt.Sprintf("issue ref %q is a template placeholder", m[1]),
			}
		}
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "frontmatter", Message: err.Error()}
	}

	spec := &Spec{
		Title:   strings.TrimSpace(f.Title),
		PlanRef: strings.TrimSpace(f.Plan),
		Scope:   f.Scope,
		Path:    path,
		Body:    body,
	}

	spec.ID = scalarString(f.ID)
	if spec.ID == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "id", Message: "missing required field"}
	}
	if spec.Title == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "title", Message: "missing required field"}
	}

	if f.Status == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "status", Message: "missing required field"}
	}
	status, ok := ParseStatus(f.Status)
	if !ok {
		return nil, &ParseError{
			Kind: ErrUnknownStatus, Path: path, Field: "status",
			Message: fmt.Sprintf("unknown status %q (want draft, active, or complete)", f.Status),
		}
	}
	spec.Status = status

	// Change type defaults to feature, matching the index generator's
	// historical behavior for untyped documents.
	if f.Type == "" {
		spec.Type = TypeFeature
	} else {
		ct, ok := ParseChangeType(f.Type)
		if !ok {
			return nil, &ParseError{
				Kind: ErrInvalidField, Path: path, Field: "type",
				Message: fmt.Sprintf("unknown change type %q (want feature, bugfix, or refactor)", f.Type),
			}
		}
		spec.Type = ct
	}

	if f.Created == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "created", Message: "missing required field"}
	}
	created, err := parseDate(f.Created)
	if err != nil {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "created", Message: err.Error()}
	}
	spec.Created = created

	if f.Completed != "" {
		completed, err := parseDate(f.Completed)
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "completed", Message: err.Error()}
		}
		spec.Completed = &completed
	}

	spec.IssueRef = scalarString(f.Issue)
	if placeholderRefs[spec.IssueRef] || strings.Contains(spec.IssueRef, "{{") {
		return nil, &ParseError{
			Kind: ErrInvalidField, Path: path, Field: "issue",
			Message: fmt.Sprintf("issue ref %q is a template placeholder", spec.IssueRef),
		}
	}

	return spec, nil
}

// ParseIssue decodes one issue record.
func ParseIssue(path string, raw []byte) (*Issue, error) {
	fm, _, err := extractFrontMatter(path, raw)
	if err != nil {
		return nil, err
	}

	var f issueFrontMatter
	if err := fm.Decode(&f); err != nil {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "frontmatter", Message: err.Error()}
	}

	issue := &Issue{
		Title: strings.TrimSpace(f.Title),
		Path:  path,
	}

	issue.ID = scalarString(f.ID)
	if issue.ID == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "id", Message: "missing required field"}
	}

	if f.Status == "" {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "status", Message: "missing required field"}
	}
	status, ok := ParseIssueStatus(f.Status)
	if !ok {
		return nil, &ParseError{
			Kind: ErrUnknownStatus, Path: path, Field: "status",
			Message: fmt.Sprintf("unknown status %q (want open or complete)", f.Status),
		}
	}
	issue.Status = status

	if f.Priority != "" {
		issue.Priority = Priority(f.Priority)
	} else {
		issue.Priority = PriorityMedium
	}

	if f.Created != "" {
		created, err := parseDate(f.Created)
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "created", Message: err.Error()}
		}
		issue.Created = created
	}
	if f.Completed != "" {
		completed, err := parseDate(f.Completed)
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "completed", Message: err.Error()}
		}
		issue.Completed = &completed
	}

	return issue, nil
}

// ParsePlan decodes a plan document. Plans are free-form; a plan with
// no front matter is valid and simply records no test review.
func ParsePlan(path string, raw []byte) (*Plan, error) {
	plan := &Plan{Path: path}

	fm, _, err := extractFrontMatter(path, raw)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Kind == ErrMissingFrontMatter {
			return plan, nil
		}
		return nil, err
	}

	var f planFrontMatter
	if err := fm.Decode(&f); err != nil {
		return nil, &ParseError{Kind: ErrInvalidField, Path: path, Field: "frontmatter", Message: err.Error()}
	}
	plan.TestReview = strings.TrimSpace(f.TestReview)
	return plan, nil
}

// RefKind classifies a cross-reference found in a spec body.
type RefKind string

const (
	RefReferences RefKind = "references"
	RefSupersedes RefKind = "supersedes"
	RefBlocks     RefKind = "blocks"
)

// BodyRef is one cross-reference to another spec, parsed from the body.
type BodyRef struct {
	Kind   RefKind
	Target string
}

// refLine matches dependency declarations in a spec body: a line
// starting with one of the reference keywords followed by a
// comma-separated id list, e.g. "Blocks: 007, 012".
var refLine = regexp.MustCompile(`(?mi)^(references|supersedes|blocks):\s*(.+?)\s*$`)

// Refs extracts all cross-reference declarations from a spec body.
func Refs(body string) []BodyRef {
	var refs []BodyRef
	for _, m := range refLine.FindAllStringSubmatch(body, -1) {
		kind := RefKind(strings.ToLower(m[1]))
		for _, target := range strings.Split(m[2], ",") {
			target = strings.TrimSpace(target)
			if target != "" {
				refs = append(refs, BodyRef{Kind: kind, Target: target})
			}
		}
	}
	return refs
}

// extractFrontMatter splits a document into its leading YAML front
// matter block and body. The front matter is returned as an undecoded
// yaml.Node so callers can decode into their own shapes.
func extractFrontMatter(path string, raw []byte) (*yaml.Node, string, error) {
	s := string(raw)
	if !strings.HasPrefix(s, "---\n") && !strings.HasPrefix(s, "---\r\n") {
		return nil, "", &ParseError{Kind: ErrMissingFrontMatter, Path: path, Field: "frontmatter", Message: "document has no front matter block"}
	}

	start := len("---")
	if s[start] == '\r' {
		start++
	}
	start++ // consume the newline

	// The close delimiter is a line holding exactly "---"; a line that
	// merely starts with three dashes does not terminate the block.
	rest := s[start:]
	closeIdx := -1
	for from := 0; ; {
		i := strings.Index(rest[from:], "\n---")
		if i == -1 {
			break
		}
		pos := from + i
		after := rest[pos+len("\n---"):]
		if after == "" || strings.HasPrefix(after, "\n") || strings.HasPrefix(after, "\r\n") {
			closeIdx = pos
			break
		}
		from = pos + 1
	}
	if closeIdx == -1 {
		return nil, "", &ParseError{Kind: ErrMissingFrontMatter, Path: path, Field: "frontmatter", Message: "front matter block is not closed"}
	}

	yamlContent := rest[:closeIdx]

	bodyStart := start + closeIdx + 1 + len("---")
	for bodyStart < len(s) && (s[bodyStart] == '\n' || s[bodyStart] == '\r') {
		bodyStart++
	}
	body := ""
	if bodyStart < len(s) {
		body = s[bodyStart:]
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(yamlContent), &node); err != nil {
		return nil, "", &ParseError{Kind: ErrInvalidField, Path: path, Field: "frontmatter", Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return nil, "", &ParseError{Kind: ErrMissingFrontMatter, Path: path, Field: "frontmatter", Message: "front matter block is empty"}
	}

	return node.Content[0], body, nil
}

// scalarString normalizes a front matter scalar to its string form.
// YAML decodes bare numeric ids (id: 7) as integers; both forms must
// compare equal across the registry.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// parseDate accepts the date forms that appear in spec front matter:
// bare dates (2026-01-15) and full RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}
