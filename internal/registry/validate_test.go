package registry

import (
	"strings"
	"testing"

	"spectree/internal/testutil"
)

func loadTree(t *testing.T, specs []testutil.SpecDoc, issues []testutil.IssueDoc) (*Registry, []Violation) {
	t.Helper()
	specsDir := testutil.Tree(t, specs, issues)
	reg, violations, err := Load(specsDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return reg, violations
}

func findViolations(violations []Violation, kind Kind) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestValidate_CleanTree(t *testing.T) {
	reg, loadViolations := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-auth", Status: "active", Issue: "10"},
			{ID: "002", Slug: "002-sessions", Status: "complete", Issue: "10"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	violations := append(loadViolations, Validate(reg)...)
	if len(violations) != 0 {
		t.Errorf("clean tree: got violations %v", violations)
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-first", Status: "draft", Issue: "10"},
			{ID: "001", Slug: "001-second", Status: "draft", Issue: "10"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	dups := findViolations(Validate(reg), KindDuplicateID)
	if len(dups) != 1 {
		t.Fatalf("got %v, want one duplicate violation", dups)
	}
	v := dups[0]
	if !strings.Contains(v.Path, "001-second") {
		t.Errorf("violation path should be the later document: %q", v.Path)
	}
	if !strings.Contains(v.Message, "001-first") {
		t.Errorf("message should name the first document: %q", v.Message)
	}
}

func TestValidate_DanglingIssueRef(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "42"},
			{ID: "002", Slug: "002-b", Status: "draft"},
		},
		nil,
	)

	dangling := findViolations(Validate(reg), KindDanglingReference)
	if len(dangling) != 2 {
		t.Fatalf("got %v, want two dangling violations", dangling)
	}
	Sort(dangling)
	if !strings.Contains(dangling[0].Message, "issueRef 42 not found") {
		t.Errorf("missing-target message: %q", dangling[0].Message)
	}
	if dangling[1].Message != "issueRef missing" {
		t.Errorf("absent-ref message: %q", dangling[1].Message)
	}
}

func TestValidate_DanglingBodyRef(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "10",
				Body: "## Overview\n\nBlocks: 999\n"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	dangling := findViolations(Validate(reg), KindDanglingReference)
	if len(dangling) != 1 {
		t.Fatalf("got %v, want one dangling violation", dangling)
	}
	v := dangling[0]
	if v.Field != "blocks" {
		t.Errorf("Field: got %q, want %q", v.Field, "blocks")
	}
	if !strings.Contains(v.Message, "spec 999 not found") {
		t.Errorf("Message: %q", v.Message)
	}
}

func TestValidate_CycleDetected(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "10",
				Body: "References: 002\n"},
			{ID: "002", Slug: "002-b", Status: "draft", Issue: "10",
				Body: "References: 001\n"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	cycles := findViolations(Validate(reg), KindCycleDetected)
	if len(cycles) != 1 {
		t.Fatalf("got %v, want exactly one cycle violation", cycles)
	}
	v := cycles[0]
	if v.Message != "dependency cycle: 001 -> 002 -> 001" {
		t.Errorf("Message: got %q", v.Message)
	}
	if !strings.Contains(v.Path, "001-a") {
		t.Errorf("Path should anchor on the lexically-first member: %q", v.Path)
	}
}

func TestValidate_SelfCycle(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "10",
				Body: "Blocks: 001\n"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	cycles := findViolations(Validate(reg), KindCycleDetected)
	if len(cycles) != 1 {
		t.Fatalf("got %v, want one cycle violation", cycles)
	}
	if cycles[0].Message != "dependency cycle: 001 -> 001" {
		t.Errorf("Message: got %q", cycles[0].Message)
	}
}

func TestValidate_ThreeNodeCycleReportedOnce(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "10", Body: "References: 002\n"},
			{ID: "002", Slug: "002-b", Status: "draft", Issue: "10", Body: "References: 003\n"},
			{ID: "003", Slug: "003-c", Status: "draft", Issue: "10", Body: "References: 001\n"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	cycles := findViolations(Validate(reg), KindCycleDetected)
	if len(cycles) != 1 {
		t.Fatalf("got %v, want the cycle reported once", cycles)
	}
	if cycles[0].Message != "dependency cycle: 001 -> 002 -> 003 -> 001" {
		t.Errorf("Message: got %q", cycles[0].Message)
	}
}

func TestValidate_LocationMismatch(t *testing.T) {
	// Rendered as complete but written under changes/open.
	raw := "---\nid: \"001\"\ntitle: Misplaced\nstatus: complete\ncreated: 2026-01-15\nissue: \"10\"\n---\n\nbody\n"
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{{ID: "001", Slug: "001-misplaced", Status: "draft", Raw: raw}},
		[]testutil.IssueDoc{{ID: "10"}},
	)

	mismatches := findViolations(Validate(reg), KindLocationMismatch)
	if len(mismatches) != 1 {
		t.Fatalf("got %v, want one location violation", mismatches)
	}
	v := mismatches[0]
	if v.Field != "status" {
		t.Errorf("Field: got %q, want %q", v.Field, "status")
	}
	if !strings.Contains(v.Message, "status complete but document is under open/") {
		t.Errorf("Message: %q", v.Message)
	}
}

func TestValidate_NeverShortCircuits(t *testing.T) {
	reg, _ := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-a", Status: "draft", Issue: "42", Body: "References: 001\n"},
			{ID: "001", Slug: "001-dup", Status: "draft", Issue: "42"},
		},
		nil,
	)

	violations := Validate(reg)
	for _, kind := range []Kind{KindDuplicateID, KindDanglingReference, KindCycleDetected} {
		if len(findViolations(violations, kind)) == 0 {
			t.Errorf("expected a %s violation alongside the others", kind)
		}
	}
}

func TestViolation_String(t *testing.T) {
	v := Violation{Kind: KindDanglingReference, Path: "specs/changes/open/1-a/SPEC.md", Field: "issue", Message: "issueRef 42 not found"}
	want := "specs/changes/open/1-a/SPEC.md:issue: issueRef 42 not found"
	if got := v.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestSort_Deterministic(t *testing.T) {
	violations := []Violation{
		{Path: "b", Field: "x", Message: "2"},
		{Path: "a", Field: "y", Message: "1"},
		{Path: "a", Field: "x", Message: "3"},
	}
	Sort(violations)
	if violations[0].Path != "a" || violations[0].Field != "x" {
		t.Errorf("order: got %v", violations)
	}
	if violations[2].Path != "b" {
		t.Errorf("order: got %v", violations)
	}
}
