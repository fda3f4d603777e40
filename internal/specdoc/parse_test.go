package specdoc

import (
	"errors"
	"strings"
	"testing"
)

const validSpec = `---
id: "042"
title: Add login
type: feature
status: draft
created: 2026-01-15
issue: 42
scope:
  - components/auth
---

## Overview

Adds the login flow.

References: 007, 012
Blocks: 013
`

func TestParseSpec_Valid(t *testing.T) {
	spec, err := ParseSpec("specs/changes/open/042-add-login/SPEC.md", []byte(validSpec))
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}

	if spec.ID != "042" {
		t.Errorf("ID: got %q, want %q", spec.ID, "042")
	}
	if spec.Title != "Add login" {
		t.Errorf("Title: got %q, want %q", spec.Title, "Add login")
	}
	if spec.Type != TypeFeature {
		t.Errorf("Type: got %q, want %q", spec.Type, TypeFeature)
	}
	if spec.Status != StatusDraft {
		t.Errorf("Status: got %q, want %q", spec.Status, StatusDraft)
	}
	if got := spec.Created.Format("2006-01-02"); got != "2026-01-15" {
		t.Errorf("Created: got %s, want 2026-01-15", got)
	}
	if spec.IssueRef != "42" {
		t.Errorf("IssueRef: got %q, want %q", spec.IssueRef, "42")
	}
	if len(spec.Scope) != 1 || spec.Scope[0] != "components/auth" {
		t.Errorf("Scope: got %v, want [components/auth]", spec.Scope)
	}
	if !strings.Contains(spec.Body, "Adds the login flow.") {
		t.Errorf("Body missing content: %q", spec.Body)
	}
}

func TestParseSpec_IntegerIDNormalized(t *testing.T) {
	raw := `---
id: 7
title: Numeric id
status: active
created: 2026-02-01
issue: 9
---
body
`
	spec, err := ParseSpec("SPEC.md", []byte(raw))
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if spec.ID != "7" {
		t.Errorf("ID: got %q, want %q", spec.ID, "7")
	}
	if spec.IssueRef != "9" {
		t.Errorf("IssueRef: got %q, want %q", spec.IssueRef, "9")
	}
}

func TestParseSpec_UnknownExtraFieldsTolerated(t *testing.T) {
	raw := `---
id: 1
title: Forward compatible
status: draft
created: 2026-01-01
issue: 2
reviewers: [alice, bob]
custom_priority: 99
---
body
`
	if _, err := ParseSpec("SPEC.md", []byte(raw)); err != nil {
		t.Fatalf("unknown extra fields should be tolerated, got: %v", err)
	}
}

func TestParseSpec_MissingFrontMatter(t *testing.T) {
	_, err := ParseSpec("SPEC.md", []byte("# Just a heading\n\nNo front matter here.\n"))
	assertParseError(t, err, ErrMissingFrontMatter, "frontmatter")
}

func TestParseSpec_UnclosedFrontMatter(t *testing.T) {
	_, err := ParseSpec("SPEC.md", []byte("---\nid: 1\ntitle: x\n"))
	assertParseError(t, err, ErrMissingFrontMatter, "frontmatter")
}

func TestParseSpec_CloseDelimiterMustBeFullLine(t *testing.T) {
	// "---extra" is front matter content, not a terminator.
	raw := "---\nid: \"1\"\ntitle: x\nstatus: draft\ncreated: 2026-01-01\n---extra\n"
	_, err := ParseSpec("SPEC.md", []byte(raw))
	assertParseError(t, err, ErrMissingFrontMatter, "frontmatter")
}

func TestParseSpec_BodyRuleNotATerminator(t *testing.T) {
	raw := "---\nid: \"1\"\ntitle: x\nstatus: draft\ncreated: 2026-01-01\nissue: \"2\"\n---\n\nintro\n\n---\n\noutro\n"
	spec, err := ParseSpec("SPEC.md", []byte(raw))
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if !strings.Contains(spec.Body, "outro") {
		t.Errorf("body truncated at the horizontal rule: %q", spec.Body)
	}
}

func TestParseSpec_UnknownStatus(t *testing.T) {
	raw := `---
id: 1
title: Bad status
status: in-review
created: 2026-01-01
---
`
	_, err := ParseSpec("SPEC.md", []byte(raw))
	assertParseError(t, err, ErrUnknownStatus, "status")
}

func TestParseSpec_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "missing id",
			raw:   "---\ntitle: x\nstatus: draft\ncreated: 2026-01-01\n---\n",
			field: "id",
		},
		{
			name:  "missing title",
			raw:   "---\nid: 1\nstatus: draft\ncreated: 2026-01-01\n---\n",
			field: "title",
		},
		{
			name:  "missing status",
			raw:   "---\nid: 1\ntitle: x\ncreated: 2026-01-01\n---\n",
			field: "status",
		},
		{
			name:  "missing created",
			raw:   "---\nid: 1\ntitle: x\nstatus: draft\n---\n",
			field: "created",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSpec("SPEC.md", []byte(tc.raw))
			assertParseError(t, err, ErrInvalidField, tc.field)
		})
	}
}

func TestParseSpec_PlaceholderIssueRejected(t *testing.T) {
	for _, placeholder := range []string{"PROJ-XXX", "TODO", "{{ISSUE}}"} {
		raw := "---\nid: 1\ntitle: x\nstatus: draft\ncreated: 2026-01-01\nissue: " + placeholder + "\n---\n"
		_, err := ParseSpec("SPEC.md", []byte(raw))
		if err == nil {
			t.Errorf("placeholder %q should be rejected", placeholder)
			continue
		}
		assertParseError(t, err, ErrInvalidField, "issue")
	}
}

func TestParseSpec_InvalidDate(t *testing.T) {
	raw := "---\nid: 1\ntitle: x\nstatus: draft\ncreated: someday\n---\n"
	_, err := ParseSpec("SPEC.md", []byte(raw))
	assertParseError(t, err, ErrInvalidField, "created")
}

func TestParseSpec_ErrorFormat(t *testing.T) {
	_, err := ParseSpec("specs/changes/open/1-x/SPEC.md", []byte("no front matter"))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "specs/changes/open/1-x/SPEC.md:frontmatter: ") {
		t.Errorf("error format: got %q, want <path>:<field>: <message>", msg)
	}
}

func TestParseIssue_Valid(t *testing.T) {
	raw := `---
id: 42
title: Login is broken
status: open
priority: high
created: 2026-01-10
---

# Login is broken
`
	issue, err := ParseIssue("specs/issues/open/42-login-broken.md", []byte(raw))
	if err != nil {
		t.Fatalf("ParseIssue failed: %v", err)
	}
	if issue.ID != "42" {
		t.Errorf("ID: got %q, want %q", issue.ID, "42")
	}
	if issue.Status != IssueOpen {
		t.Errorf("Status: got %q, want %q", issue.Status, IssueOpen)
	}
	if issue.Priority != PriorityHigh {
		t.Errorf("Priority: got %q, want %q", issue.Priority, PriorityHigh)
	}
}

func TestParseIssue_UnknownStatus(t *testing.T) {
	raw := "---\nid: 42\ntitle: x\nstatus: wontfix\n---\n"
	_, err := ParseIssue("issue.md", []byte(raw))
	assertParseError(t, err, ErrUnknownStatus, "status")
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		complete bool
	}{
		{"review complete", "---\ntest_review: complete\n---\nplan body\n", true},
		{"review pending", "---\ntest_review: pending\n---\n", false},
		{"no marker", "---\nowner: alice\n---\n", false},
		{"no front matter", "# Plan\n\nfree-form\n", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := ParsePlan("PLAN.md", []byte(tc.raw))
			if err != nil {
				t.Fatalf("ParsePlan failed: %v", err)
			}
			if got := plan.TestReviewComplete(); got != tc.complete {
				t.Errorf("TestReviewComplete: got %v, want %v", got, tc.complete)
			}
		})
	}
}

func TestRefs(t *testing.T) {
	body := `## Overview

Some text.

References: 007, 012
Supersedes: 003
blocks: 013

More text where a mid-line References: 099 must not count.
`
	refs := Refs(body)

	want := []BodyRef{
		{Kind: RefReferences, Target: "007"},
		{Kind: RefReferences, Target: "012"},
		{Kind: RefSupersedes, Target: "003"},
		{Kind: RefBlocks, Target: "013"},
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs %v, want %d", len(refs), refs, len(want))
	}
	for i, ref := range want {
		if refs[i] != ref {
			t.Errorf("ref %d: got %+v, want %+v", i, refs[i], ref)
		}
	}
}

func TestRefs_NoneInPlainBody(t *testing.T) {
	if refs := Refs("## Overview\n\nNothing to see.\n"); len(refs) != 0 {
		t.Errorf("got %v, want no refs", refs)
	}
}

func assertParseError(t *testing.T, err error, kind ErrorKind, field string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if pe.Kind != kind {
		t.Errorf("Kind: got %q, want %q", pe.Kind, kind)
	}
	if pe.Field != field {
		t.Errorf("Field: got %q, want %q", pe.Field, field)
	}
}
