// Package gate decides whether a proposed file write is permitted
// given the current state of the spec registry. The gate is invoked
// synchronously by the host before a write commits; it only ever
// reads spec state, never transitions it. On any failure it could not
// fully evaluate, the gate fails closed and blocks the write.
package gate

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"spectree/internal/config"
	"spectree/internal/registry"
	"spectree/internal/specdoc"
)

// Action is the gate's verdict on a proposed write.
type Action string

const (
	Allow Action = "allow"
	Block Action = "block"
)

// Decision reasons. Stable strings surfaced to the host.
const (
	ReasonUntracked          = "Untracked"
	ReasonSpecActive         = "SpecActive"
	ReasonSpecDraft          = "SpecDraft"
	ReasonMissingSpec        = "MissingSpec"
	ReasonSpecClosed         = "SpecClosed"
	ReasonTestReviewRequired = "TestReviewRequired"
	ReasonAmbiguousSpec      = "AmbiguousSpec"
	ReasonPolicyError        = "PolicyError"
)

// Request describes one proposed file write.
type Request struct {
	// TargetPath is the file the host wants to write, relative to the
	// repository root (absolute paths are relativized).
	TargetPath string `json:"path"`

	// ContentSummary is a short description of the write, for messages.
	ContentSummary string `json:"summary,omitempty"`

	// ToolContext names the host tool requesting the write.
	ToolContext string `json:"tool,omitempty"`
}

// Decision is the gate's answer to one request.
type Decision struct {
	Action  Action `json:"action"`
	Reason  string `json:"reason"`
	Message string `json:"message"`

	// SpecID names the governing spec, when one was resolved.
	SpecID string `json:"spec_id,omitempty"`
}

// Allowed reports whether the write may proceed.
func (d Decision) Allowed() bool {
	return d.Action == Allow
}

// Gate evaluates write requests against one registry snapshot.
type Gate struct {
	reg      *registry.Registry
	cfg      config.GateConfig
	repoRoot string
	specsRel string // specs dir relative to the repo root, slash form

	// loadPlan is swappable in tests; defaults to registry.LoadPlan.
	loadPlan func(*specdoc.Spec) (*specdoc.Plan, error)
}

// New creates a gate over a loaded registry. repoRoot is the directory
// tracked roots and request paths are relative to.
func New(reg *registry.Registry, cfg config.GateConfig, repoRoot string) *Gate {
	specsRel := filepath.ToSlash(reg.Dir)
	if rel, err := filepath.Rel(repoRoot, reg.Dir); err == nil && !strings.HasPrefix(rel, "..") {
		specsRel = filepath.ToSlash(rel)
	}
	return &Gate{
		reg:      reg,
		cfg:      cfg,
		repoRoot: repoRoot,
		specsRel: specsRel,
		loadPlan: registry.LoadPlan,
	}
}

// Evaluate applies the write policy to one request. It never returns
// an error: anything the gate cannot fully evaluate produces a block
// decision with a PolicyError reason.
func (g *Gate) Evaluate(req Request) Decision {
	rel, err := g.relativize(req.TargetPath)
	if err != nil {
		return Decision{
			Action: Block, Reason: ReasonPolicyError,
			Message: fmt.Sprintf("cannot resolve target path %q: %v", req.TargetPath, err),
		}
	}

	// A declared scope claim governs its paths even when they fall
	// outside the tracked roots, so claimants are resolved before the
	// tracked check.
	candidates := g.claimants(rel)

	if len(candidates) == 0 {
		if !g.tracked(rel) {
			return Decision{
				Action: Allow, Reason: ReasonUntracked,
				Message: fmt.Sprintf("%s is outside tracked roots", rel),
			}
		}
		// Writes inside the specs tree itself are how new specs come
		// to exist, so they do not require a governing spec.
		if g.underSpecs(rel) {
			return Decision{
				Action: Allow, Reason: ReasonUntracked,
				Message: fmt.Sprintf("%s is spec bookkeeping with no governing change", rel),
			}
		}
		return Decision{
			Action: Block, Reason: ReasonMissingSpec,
			Message: fmt.Sprintf("no spec governs %s; declare the change in a spec before writing", rel),
		}
	}

	// Resolution precedence: an active spec governs over a draft,
	// which governs over a completed one. More than one claimant in
	// the winning tier fails closed rather than guessing.
	for _, status := range []specdoc.Status{specdoc.StatusActive, specdoc.StatusDraft, specdoc.StatusComplete} {
		tier := filterByStatus(candidates, status)
		if len(tier) == 0 {
			continue
		}
		if len(tier) > 1 {
			return Decision{
				Action: Block, Reason: ReasonAmbiguousSpec,
				Message: fmt.Sprintf("%s is claimed by multiple %s specs: %s", rel, status, joinIDs(tier)),
			}
		}
		return g.decideFor(tier[0], rel)
	}

	// Unreachable: every parsed spec has one of the three statuses.
	return Decision{
		Action: Block, Reason: ReasonPolicyError,
		Message: fmt.Sprintf("cannot resolve a governing spec for %s", rel),
	}
}

// decideFor applies the status-ordered policy once a single governing
// spec has been resolved.
func (g *Gate) decideFor(spec *specdoc.Spec, rel string) Decision {
	switch spec.Status {
	case specdoc.StatusComplete:
		return Decision{
			Action: Block, Reason: ReasonSpecClosed, SpecID: spec.ID,
			Message: fmt.Sprintf("spec %s is complete; edits to closed changes require a new spec", spec.ID),
		}

	case specdoc.StatusDraft:
		if !g.implementationFile(rel) {
			return Decision{
				Action: Allow, Reason: ReasonSpecDraft, SpecID: spec.ID,
				Message: fmt.Sprintf("%s is a spec or test path under draft spec %s", rel, spec.ID),
			}
		}
		plan, err := g.loadPlan(spec)
		if err != nil {
			return Decision{
				Action: Block, Reason: ReasonPolicyError, SpecID: spec.ID,
				Message: fmt.Sprintf("cannot evaluate plan for spec %s: %v", spec.ID, err),
			}
		}
		if !plan.TestReviewComplete() {
			return Decision{
				Action: Block, Reason: ReasonTestReviewRequired, SpecID: spec.ID,
				Message: fmt.Sprintf("spec %s is draft and its plan has no completed test review", spec.ID),
			}
		}
		return Decision{
			Action: Allow, Reason: ReasonSpecDraft, SpecID: spec.ID,
			Message: fmt.Sprintf("draft spec %s has a completed test review", spec.ID),
		}

	case specdoc.StatusActive:
		return Decision{
			Action: Allow, Reason: ReasonSpecActive, SpecID: spec.ID,
			Message: fmt.Sprintf("spec %s is active and claims %s", spec.ID, rel),
		}
	}

	// Unreachable for parsed specs; fail closed anyway.
	return Decision{
		Action: Block, Reason: ReasonPolicyError, SpecID: spec.ID,
		Message: fmt.Sprintf("spec %s has unrecognized status %q", spec.ID, spec.Status),
	}
}

// relativize converts a request path to a clean slash-form path
// relative to the repo root.
func (g *Gate) relativize(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty target path")
	}
	p := target
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(g.repoRoot, p)
		if err != nil {
			return "", err
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("target %s escapes the repository root", target)
	}
	return p, nil
}

// tracked reports whether rel falls under the specs dir or any
// configured tracked root.
func (g *Gate) tracked(rel string) bool {
	if g.underSpecs(rel) {
		return true
	}
	for _, root := range g.cfg.TrackedRoots {
		if matchScope(root, rel) {
			return true
		}
	}
	return false
}

func (g *Gate) underSpecs(rel string) bool {
	return rel == g.specsRel || strings.HasPrefix(rel, g.specsRel+"/")
}

// claimants returns every spec that claims rel, either through a
// scope pattern or because rel lies inside the spec's own directory.
func (g *Gate) claimants(rel string) []*specdoc.Spec {
	var claimed []*specdoc.Spec
	for _, id := range g.reg.SpecIDs() {
		spec := g.reg.Specs[id]
		if g.ownDirClaims(spec, rel) {
			claimed = append(claimed, spec)
			continue
		}
		for _, pattern := range spec.Scope {
			if matchScope(pattern, rel) {
				claimed = append(claimed, spec)
				break
			}
		}
	}
	return claimed
}

// ownDirClaims reports whether rel lies inside the directory holding
// the spec's own documents, making that spec its governor. This is
// what blocks edits to a completed change's SPEC.md.
func (g *Gate) ownDirClaims(spec *specdoc.Spec, rel string) bool {
	dir, err := filepath.Rel(g.repoRoot, filepath.Dir(spec.Path))
	if err != nil || strings.HasPrefix(dir, "..") {
		dir = filepath.Dir(spec.Path)
	}
	prefix := filepath.ToSlash(dir)
	return rel == prefix || strings.HasPrefix(rel, prefix+"/")
}

// implementationFile reports whether rel is an implementation write:
// outside the specs tree and not under a test directory.
func (g *Gate) implementationFile(rel string) bool {
	if g.underSpecs(rel) {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		for _, testDir := range g.cfg.TestDirs {
			if seg == testDir {
				return false
			}
		}
	}
	return true
}

// matchScope matches rel against a scope glob. A pattern naming a
// directory (components/auth) claims everything beneath it, so both
// the pattern itself and pattern/** are tried.
func matchScope(pattern, rel string) bool {
	pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	if ok, err := doublestar.Match(path.Join(pattern, "**"), rel); err == nil && ok {
		return true
	}
	return false
}

func filterByStatus(specs []*specdoc.Spec, status specdoc.Status) []*specdoc.Spec {
	var out []*specdoc.Spec
	for _, s := range specs {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

func joinIDs(specs []*specdoc.Spec) string {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
