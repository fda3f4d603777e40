package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"spectree/internal/specdoc"
)

// Kind is the stable category of a violation, surfaced verbatim in
// both text and JSON output.
type Kind string

const (
	KindParse             Kind = "ParseError"
	KindDuplicateID       Kind = "DuplicateId"
	KindDanglingReference Kind = "DanglingReference"
	KindCycleDetected     Kind = "CycleDetected"
	KindLocationMismatch  Kind = "LocationMismatch"
)

// Violation is one consistency problem found in the tree. Violations
// render as "<path>:<field>: <message>".
type Violation struct {
	Kind    Kind
	Path    string
	Field   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%s: %s", v.Path, v.Field, v.Message)
}

// fromParseError converts a parse failure into a violation so batch
// scans can report it alongside semantic problems.
func fromParseError(err error, path string) Violation {
	var pe *specdoc.ParseError
	if errors.As(err, &pe) {
		return Violation{Kind: KindParse, Path: pe.Path, Field: pe.Field, Message: pe.Message}
	}
	return Violation{Kind: KindParse, Path: path, Field: "document", Message: err.Error()}
}

// Sort orders violations by path, then field, then message, so
// repeated runs over an unchanged tree produce identical output.
func Sort(violations []Violation) {
	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Message < b.Message
	})
}

// Validate runs every consistency check over the registry and returns
// the complete violation set. It never short-circuits: all checks run
// against all documents so a single bad document does not hide other
// problems elsewhere in the tree.
func Validate(reg *Registry) []Violation {
	var violations []Violation
	violations = append(violations, checkDuplicateIDs(reg)...)
	violations = append(violations, checkDanglingRefs(reg)...)
	violations = append(violations, checkCycles(reg)...)
	violations = append(violations, checkLocations(reg)...)
	return violations
}

// checkDuplicateIDs reports every document whose id collides with an
// earlier one, naming both paths.
func checkDuplicateIDs(reg *Registry) []Violation {
	var violations []Violation

	seenSpecs := make(map[string]string) // id → first path
	for _, spec := range reg.allSpecs {
		first, dup := seenSpecs[spec.ID]
		if !dup {
			seenSpecs[spec.ID] = spec.Path
			continue
		}
		violations = append(violations, Violation{
			Kind: KindDuplicateID, Path: spec.Path, Field: "id",
			Message: fmt.Sprintf("duplicate id %s (also declared in %s)", spec.ID, first),
		})
	}

	seenIssues := make(map[string]string)
	for _, issue := range reg.allIssues {
		first, dup := seenIssues[issue.ID]
		if !dup {
			seenIssues[issue.ID] = issue.Path
			continue
		}
		violations = append(violations, Violation{
			Kind: KindDuplicateID, Path: issue.Path, Field: "id",
			Message: fmt.Sprintf("duplicate id %s (also declared in %s)", issue.ID, first),
		})
	}

	return violations
}

// checkDanglingRefs reports issue refs and body references whose
// target id is absent from the registry.
func checkDanglingRefs(reg *Registry) []Violation {
	var violations []Violation

	for _, spec := range reg.allSpecs {
		if spec.IssueRef == "" {
			violations = append(violations, Violation{
				Kind: KindDanglingReference, Path: spec.Path, Field: "issue",
				Message: "issueRef missing",
			})
		} else if _, ok := reg.Issues[spec.IssueRef]; !ok {
			violations = append(violations, Violation{
				Kind: KindDanglingReference, Path: spec.Path, Field: "issue",
				Message: fmt.Sprintf("issueRef %s not found", spec.IssueRef),
			})
		}
	}

	for _, edge := range reg.Edges {
		if _, ok := reg.Specs[edge.To]; ok {
			continue
		}
		from := reg.Specs[edge.From]
		if from == nil {
			continue
		}
		violations = append(violations, Violation{
			Kind: KindDanglingReference, Path: from.Path, Field: string(edge.Kind),
			Message: fmt.Sprintf("spec %s not found", edge.To),
		})
	}

	return violations
}

// checkCycles runs a depth-first search over the dependency edges,
// reporting each back-edge cycle once with its member ids.
func checkCycles(reg *Registry) []Violation {
	adjacent := make(map[string][]string)
	for _, edge := range reg.Edges {
		if _, ok := reg.Specs[edge.To]; !ok {
			continue // dangling targets are reported separately
		}
		adjacent[edge.From] = append(adjacent[edge.From], edge.To)
	}
	for _, targets := range adjacent {
		sort.Strings(targets)
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var stack []string
	var violations []Violation
	reported := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		state[id] = inStack
		stack = append(stack, id)

		for _, next := range adjacent[id] {
			switch state[next] {
			case unvisited:
				visit(next)
			case inStack:
				// Back-edge: the cycle is the stack suffix from next onward.
				start := 0
				for i, member := range stack {
					if member == next {
						start = i
						break
					}
				}
				members := append([]string(nil), stack[start:]...)
				key := cycleKey(members)
				if !reported[key] {
					reported[key] = true
					violations = append(violations, cycleViolation(reg, members))
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range reg.SpecIDs() {
		if state[id] == unvisited {
			visit(id)
		}
	}

	return violations
}

// cycleKey canonicalizes a cycle's membership so the same cycle found
// from different entry points is reported once.
func cycleKey(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func cycleViolation(reg *Registry, members []string) Violation {
	// Anchor the report on the lexically-first member so output is
	// stable regardless of traversal order.
	anchor := members[0]
	for _, m := range members[1:] {
		if m < anchor {
			anchor = m
		}
	}
	path := anchor
	if spec := reg.Specs[anchor]; spec != nil {
		path = spec.Path
	}
	return Violation{
		Kind: KindCycleDetected, Path: path, Field: "deps",
		Message: fmt.Sprintf("dependency cycle: %s -> %s", strings.Join(members, " -> "), members[0]),
	}
}

// checkLocations reports specs and issues whose on-disk directory
// (open/ vs complete/) disagrees with their status field.
func checkLocations(reg *Registry) []Violation {
	var violations []Violation

	for _, spec := range reg.allSpecs {
		dir := statusDir(spec.Path)
		var want string
		if spec.Status == specdoc.StatusComplete {
			want = specdoc.DirComplete
		} else {
			want = specdoc.DirOpen
		}
		if dir != "" && dir != want {
			violations = append(violations, Violation{
				Kind: KindLocationMismatch, Path: spec.Path, Field: "status",
				Message: fmt.Sprintf("status %s but document is under %s/", spec.Status, dir),
			})
		}
	}

	for _, issue := range reg.allIssues {
		dir := statusDir(issue.Path)
		var want string
		if issue.Status == specdoc.IssueComplete {
			want = specdoc.DirComplete
		} else {
			want = specdoc.DirOpen
		}
		if dir != "" && dir != want {
			violations = append(violations, Violation{
				Kind: KindLocationMismatch, Path: issue.Path, Field: "status",
				Message: fmt.Sprintf("status %s but document is under %s/", issue.Status, dir),
			})
		}
	}

	return violations
}

// statusDir extracts the open/complete segment from a document path.
func statusDir(path string) string {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == specdoc.DirOpen || seg == specdoc.DirComplete {
			return seg
		}
	}
	return ""
}
