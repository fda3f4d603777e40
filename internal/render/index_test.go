package render

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"spectree/internal/registry"
	"spectree/internal/testutil"
)

func loadTree(t *testing.T, specs []testutil.SpecDoc, issues []testutil.IssueDoc) *registry.Registry {
	t.Helper()
	specsDir := testutil.Tree(t, specs, issues)
	reg, violations, err := registry.Load(specsDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("fixture tree has violations: %v", violations)
	}
	return reg
}

func standardTree(t *testing.T) *registry.Registry {
	t.Helper()
	return loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-auth", Title: "Add auth", Type: "feature",
				Status: "active", Created: "2026-01-10", Issue: "10",
				Body: "## Overview\n\nLogin and sessions.\n"},
			{ID: "002", Slug: "002-fix-leak", Title: "Fix leak", Type: "bugfix",
				Status: "draft", Created: "2026-01-12", Issue: "11"},
			{ID: "003", Slug: "003-cleanup", Title: "Cleanup", Type: "refactor",
				Status: "complete", Created: "2026-01-05", Issue: "10"},
		},
		[]testutil.IssueDoc{
			{ID: "10"},
			{ID: "11", Status: "complete"},
		},
	)
}

func TestIndex_Content(t *testing.T) {
	out := string(Index(standardTree(t)))

	if !strings.HasPrefix(out, "# Spec Index\n") {
		t.Errorf("missing title: %q", firstLine(out))
	}
	if !strings.Contains(out, "Total: 3 specs (Active: 1, Draft: 1, Complete: 1)") {
		t.Errorf("totals line wrong:\n%s", out)
	}
	for _, heading := range []string{"## Active Changes", "## Drafts", "## Complete"} {
		if !strings.Contains(out, heading) {
			t.Errorf("missing section %q", heading)
		}
	}
	if !strings.Contains(out, "[changes/open/001-auth/SPEC.md](changes/open/001-auth/SPEC.md)") {
		t.Errorf("missing relative spec link:\n%s", out)
	}
	if !strings.Contains(out, "| Add auth | feature |") {
		t.Errorf("missing active row:\n%s", out)
	}
}

func TestIndex_SectionOrdering(t *testing.T) {
	out := string(Index(standardTree(t)))

	active := strings.Index(out, "## Active Changes")
	drafts := strings.Index(out, "## Drafts")
	complete := strings.Index(out, "## Complete")
	if !(active < drafts && drafts < complete) {
		t.Errorf("section order wrong: active=%d drafts=%d complete=%d", active, drafts, complete)
	}
}

func TestIndex_RowOrdering(t *testing.T) {
	// Same status: newest created first, id breaks ties.
	reg := loadTree(t,
		[]testutil.SpecDoc{
			{ID: "001", Slug: "001-old", Title: "Old", Status: "draft", Created: "2026-01-01", Issue: "10"},
			{ID: "002", Slug: "002-new", Title: "New", Status: "draft", Created: "2026-02-01", Issue: "10"},
			{ID: "003", Slug: "003-tie", Title: "Tie", Status: "draft", Created: "2026-02-01", Issue: "10"},
		},
		[]testutil.IssueDoc{{ID: "10"}},
	)
	out := string(Index(reg))

	newIdx := strings.Index(out, "| New |")
	tieIdx := strings.Index(out, "| Tie |")
	oldIdx := strings.Index(out, "| Old |")
	if !(newIdx < tieIdx && tieIdx < oldIdx) {
		t.Errorf("row order wrong:\n%s", out)
	}
}

func TestIndex_EmptySections(t *testing.T) {
	reg := loadTree(t,
		[]testutil.SpecDoc{{ID: "001", Slug: "001-a", Status: "draft", Issue: "10"}},
		[]testutil.IssueDoc{{ID: "10"}},
	)
	out := string(Index(reg))

	if strings.Count(out, "*None*") != 2 {
		t.Errorf("active and complete sections should render *None*:\n%s", out)
	}
}

func TestIndex_Idempotent(t *testing.T) {
	reg := standardTree(t)

	first := Index(reg)
	second := Index(reg)
	if !bytes.Equal(first, second) {
		t.Error("two renders of the same registry differ")
	}

	// A fresh load of the unchanged tree must also render identically.
	reg2, _, err := registry.Load(reg.Dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !bytes.Equal(first, Index(reg2)) {
		t.Error("render after reload differs")
	}
}

func TestWriteIndex(t *testing.T) {
	reg := standardTree(t)

	path, err := WriteIndex(reg)
	if err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.Equal(written, Index(reg)) {
		t.Error("file content differs from rendered index")
	}

	// Overwriting an existing file must succeed and stay byte-identical.
	if _, err := WriteIndex(reg); err != nil {
		t.Fatalf("second WriteIndex failed: %v", err)
	}
	rewritten, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.Equal(written, rewritten) {
		t.Error("regenerated index differs from the first write")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
