// Package registry builds the in-memory registry of specs and issues
// from a project tree and runs the consistency checks over it. The
// registry is rebuilt fresh on every invocation; nothing here is
// cached between calls and nothing here writes to a spec document.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"spectree/internal/specdoc"
)

// Layout under the specs directory.
const (
	ChangesDir   = "changes"
	IssuesDir    = "issues"
	IndexFile    = "INDEX.md"
	SnapshotFile = "SNAPSHOT.md"
)

// Edge is one directed dependency between two specs, parsed from body
// references (References:, Supersedes:, Blocks: lines).
type Edge struct {
	From string
	To   string
	Kind specdoc.RefKind
}

// Registry holds everything parsed from one scan of the tree.
type Registry struct {
	Dir    string // the specs directory the registry was loaded from
	Specs  map[string]*specdoc.Spec
	Issues map[string]*specdoc.Issue
	Edges  []Edge

	// allSpecs preserves scan order and duplicate-id documents so the
	// duplicate check can name every colliding path.
	allSpecs  []*specdoc.Spec
	allIssues []*specdoc.Issue
}

// SpecIDs returns all registered spec ids in sorted order.
func (r *Registry) SpecIDs() []string {
	ids := make([]string, 0, len(r.Specs))
	for id := range r.Specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllSpecs returns every successfully parsed spec document in scan
// order, including any whose id collides with another document.
func (r *Registry) AllSpecs() []*specdoc.Spec {
	return r.allSpecs
}

// AllIssues returns every successfully parsed issue record in scan order.
func (r *Registry) AllIssues() []*specdoc.Issue {
	return r.allIssues
}

// SpecForPath returns the spec whose document lives at path, if any.
func (r *Registry) SpecForPath(path string) *specdoc.Spec {
	for _, s := range r.allSpecs {
		if s.Path == path {
			return s
		}
	}
	return nil
}

// Load scans the specs directory and builds a registry. Parse failures
// are collected as violations and scanning continues, so one malformed
// document never hides problems elsewhere in the tree. The returned
// error is reserved for the specs directory itself being unreadable.
func Load(specsDir string) (*Registry, []Violation, error) {
	if _, err := os.Stat(specsDir); err != nil {
		return nil, nil, fmt.Errorf("specs directory %s: %w", specsDir, err)
	}

	reg := &Registry{
		Dir:    specsDir,
		Specs:  make(map[string]*specdoc.Spec),
		Issues: make(map[string]*specdoc.Issue),
	}
	var violations []Violation

	for _, dir := range []string{specdoc.DirOpen, specdoc.DirComplete} {
		v, err := reg.loadChanges(filepath.Join(specsDir, ChangesDir, dir))
		if err != nil {
			return nil, nil, err
		}
		violations = append(violations, v...)
	}

	for _, dir := range []string{specdoc.DirOpen, specdoc.DirComplete} {
		v, err := reg.loadIssues(filepath.Join(specsDir, IssuesDir, dir))
		if err != nil {
			return nil, nil, err
		}
		violations = append(violations, v...)
	}

	for _, spec := range reg.allSpecs {
		for _, ref := range specdoc.Refs(spec.Body) {
			reg.Edges = append(reg.Edges, Edge{From: spec.ID, To: ref.Target, Kind: ref.Kind})
		}
	}

	return reg, violations, nil
}

// loadChanges scans one changes/{open,complete} directory. Each change
// lives in its own <id>-<slug> subdirectory holding a SPEC.md.
func (reg *Registry) loadChanges(dir string) ([]Violation, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var violations []Violation
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), specdoc.SpecFileName)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		spec, err := specdoc.ParseSpec(path, raw)
		if err != nil {
			violations = append(violations, fromParseError(err, path))
			continue
		}

		reg.allSpecs = append(reg.allSpecs, spec)
		if _, exists := reg.Specs[spec.ID]; !exists {
			reg.Specs[spec.ID] = spec
		}
	}
	return violations, nil
}

// loadIssues scans one issues/{open,complete} directory of flat
// <id>-<slug>.md records.
func (reg *Registry) loadIssues(dir string) ([]Violation, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var violations []Violation
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		issue, err := specdoc.ParseIssue(path, raw)
		if err != nil {
			violations = append(violations, fromParseError(err, path))
			continue
		}

		reg.allIssues = append(reg.allIssues, issue)
		if _, exists := reg.Issues[issue.ID]; !exists {
			reg.Issues[issue.ID] = issue
		}
	}
	return violations, nil
}

// LoadPlan reads the plan document governing a spec: the PlanRef from
// its front matter if set, otherwise a PLAN.md beside the spec. A nil
// plan with nil error means no plan document exists.
func LoadPlan(spec *specdoc.Spec) (*specdoc.Plan, error) {
	name := spec.PlanRef
	if name == "" {
		name = specdoc.PlanFileName
	}
	path := filepath.Join(filepath.Dir(spec.Path), name)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}
	return specdoc.ParsePlan(path, raw)
}
