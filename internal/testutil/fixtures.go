// Package testutil provides helpers for building spec tree fixtures
// in temporary directories.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SpecDoc describes one spec fixture to write.
type SpecDoc struct {
	ID      string
	Slug    string // directory slug; defaults to the id
	Title   string
	Type    string
	Status  string
	Created string
	Issue   string
	Scope   []string
	Body    string

	// Raw, when set, is written verbatim instead of rendering front
	// matter — used for malformed-document fixtures.
	Raw string
}

// IssueDoc describes one issue fixture to write.
type IssueDoc struct {
	ID      string
	Slug    string
	Title   string
	Status  string
	Created string
}

// Tree builds a specs directory in a fresh temp dir and returns its path.
func Tree(t *testing.T, specs []SpecDoc, issues []IssueDoc) string {
	t.Helper()

	specsDir := filepath.Join(t.TempDir(), "specs")
	for _, sub := range []string{
		"changes/open", "changes/complete", "issues/open", "issues/complete",
	} {
		if err := os.MkdirAll(filepath.Join(specsDir, sub), 0755); err != nil {
			t.Fatalf("creating %s: %v", sub, err)
		}
	}

	for _, s := range specs {
		WriteSpec(t, specsDir, s)
	}
	for _, i := range issues {
		WriteIssue(t, specsDir, i)
	}

	return specsDir
}

// WriteSpec writes one spec document into the tree, placing it under
// changes/complete for complete status and changes/open otherwise.
func WriteSpec(t *testing.T, specsDir string, s SpecDoc) string {
	t.Helper()

	slug := s.Slug
	if slug == "" {
		slug = s.ID
	}
	statusDir := "open"
	if s.Status == "complete" {
		statusDir = "complete"
	}
	dir := filepath.Join(specsDir, "changes", statusDir, slug)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating spec dir: %v", err)
	}

	path := filepath.Join(dir, "SPEC.md")
	content := s.Raw
	if content == "" {
		content = renderSpec(s)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing spec %s: %v", s.ID, err)
	}
	return path
}

// WriteIssue writes one issue record into the tree.
func WriteIssue(t *testing.T, specsDir string, i IssueDoc) string {
	t.Helper()

	slug := i.Slug
	if slug == "" {
		slug = i.ID
	}
	statusDir := "open"
	if i.Status == "complete" {
		statusDir = "complete"
	}
	dir := filepath.Join(specsDir, "issues", statusDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating issue dir: %v", err)
	}

	path := filepath.Join(dir, slug+".md")
	if err := os.WriteFile(path, []byte(renderIssue(i)), 0644); err != nil {
		t.Fatalf("writing issue %s: %v", i.ID, err)
	}
	return path
}

// WritePlan writes a PLAN.md beside the given spec document.
func WritePlan(t *testing.T, specPath, testReview string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("---\n")
	if testReview != "" {
		fmt.Fprintf(&b, "test_review: %s\n", testReview)
	} else {
		b.WriteString("owner: nobody\n")
	}
	b.WriteString("---\n\n# Plan\n")

	path := filepath.Join(filepath.Dir(specPath), "PLAN.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("writing plan: %v", err)
	}
	return path
}

func renderSpec(s SpecDoc) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %q\n", s.ID)
	title := s.Title
	if title == "" {
		title = "Spec " + s.ID
	}
	fmt.Fprintf(&b, "title: %s\n", title)
	if s.Type != "" {
		fmt.Fprintf(&b, "type: %s\n", s.Type)
	}
	status := s.Status
	if status == "" {
		status = "draft"
	}
	fmt.Fprintf(&b, "status: %s\n", status)
	created := s.Created
	if created == "" {
		created = "2026-01-15"
	}
	fmt.Fprintf(&b, "created: %s\n", created)
	if s.Issue != "" {
		fmt.Fprintf(&b, "issue: %q\n", s.Issue)
	}
	if len(s.Scope) > 0 {
		b.WriteString("scope:\n")
		for _, scope := range s.Scope {
			fmt.Fprintf(&b, "  - %s\n", scope)
		}
	}
	b.WriteString("---\n\n")
	if s.Body != "" {
		b.WriteString(s.Body)
		b.WriteString("\n")
	} else {
		b.WriteString("## Overview\n\nFixture spec.\n")
	}
	return b.String()
}

func renderIssue(i IssueDoc) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %q\n", i.ID)
	title := i.Title
	if title == "" {
		title = "Issue " + i.ID
	}
	fmt.Fprintf(&b, "title: %s\n", title)
	status := i.Status
	if status == "" {
		status = "open"
	}
	fmt.Fprintf(&b, "status: %s\n", status)
	created := i.Created
	if created == "" {
		created = "2026-01-10"
	}
	fmt.Fprintf(&b, "created: %s\n", created)
	b.WriteString("---\n\n# ")
	b.WriteString(title)
	b.WriteString("\n")
	return b.String()
}
