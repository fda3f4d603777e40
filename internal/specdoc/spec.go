// Package specdoc defines the document types for the spec registry:
// spec documents, issue records, and plan documents, plus the front
// matter parser that decodes them from markdown files.
package specdoc

import "time"

// Directory names under specs/changes and specs/issues. A document's
// status must agree with the directory it lives in.
const (
	DirOpen     = "open"
	DirComplete = "complete"
)

// SpecFileName is the document file inside each change directory.
const SpecFileName = "SPEC.md"

// PlanFileName is the optional plan document beside a SPEC.md.
const PlanFileName = "PLAN.md"

// Status is the lifecycle state of a spec. Transitions are monotonic
// (draft → active → complete) and happen outside this tool; the
// registry only ever reads the current value.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// ParseStatus decodes a status string into the closed three-value set.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusActive, StatusComplete:
		return Status(s), true
	}
	return "", false
}

// SortRank orders statuses for index generation: active changes first,
// then drafts, completed changes last.
func (s Status) SortRank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusDraft:
		return 1
	case StatusComplete:
		return 2
	default:
		return 3
	}
}

// ChangeType categorizes what kind of change a spec describes.
type ChangeType string

const (
	TypeFeature  ChangeType = "feature"
	TypeBugfix   ChangeType = "bugfix"
	TypeRefactor ChangeType = "refactor"
)

// ParseChangeType decodes a change type string into the closed set.
func ParseChangeType(s string) (ChangeType, bool) {
	switch ChangeType(s) {
	case TypeFeature, TypeBugfix, TypeRefactor:
		return ChangeType(s), true
	}
	return "", false
}

// Spec is one parsed spec document.
type Spec struct {
	ID        string
	Title     string
	Type      ChangeType
	Status    Status
	Created   time.Time
	Completed *time.Time

	// IssueRef names the issue this change tracks. Every spec must
	// reference an issue that exists in the registry.
	IssueRef string

	// PlanRef optionally names a plan document relative to the spec's
	// directory. Empty means PLAN.md beside the spec, if present.
	PlanRef string

	// Scope lists glob patterns for the component subtrees this
	// change claims. The write gate matches proposed writes against
	// these patterns to find a path's governing spec.
	Scope []string

	Path string // path the document was loaded from
	Body string // markdown content after the front matter
}

// InFlight reports whether the spec describes work that is not yet done.
func (s *Spec) InFlight() bool {
	return s.Status != StatusComplete
}

// IssueStatus is the lifecycle state of an issue record.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueComplete IssueStatus = "complete"
)

// ParseIssueStatus decodes an issue status string.
func ParseIssueStatus(s string) (IssueStatus, bool) {
	switch IssueStatus(s) {
	case IssueOpen, IssueComplete:
		return IssueStatus(s), true
	}
	return "", false
}

// Priority represents the urgency of an issue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Issue is one parsed issue record.
type Issue struct {
	ID        string
	Title     string
	Status    IssueStatus
	Priority  Priority
	Created   time.Time
	Completed *time.Time
	Path      string
}

// Plan is a parsed plan document. Only the fields the write gate
// consults are decoded; the rest of the document is free-form.
type Plan struct {
	// TestReview records whether test review for the change has been
	// completed. The gate blocks implementation writes under a draft
	// spec until this reads "complete".
	TestReview string
	Path       string
}

// TestReviewComplete reports whether the plan records a finished test review.
func (p *Plan) TestReviewComplete() bool {
	return p != nil && p.TestReview == "complete"
}
