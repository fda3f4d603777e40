package render

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"spectree/internal/registry"
	"spectree/internal/specdoc"
)

// Index renders INDEX.md content from a registry. The output carries
// no run-varying content (no generation timestamps) so reruns over an
// unchanged tree are byte-identical.
func Index(reg *registry.Registry) []byte {
	specs := sortedSpecs(reg)

	counts := make(map[specdoc.Status]int)
	for _, s := range specs {
		counts[s.Status]++
	}

	var b strings.Builder
	b.WriteString("# Spec Index\n\n")
	fmt.Fprintf(&b, "Total: %d specs (Active: %d, Draft: %d, Complete: %d)\n\n",
		len(specs),
		counts[specdoc.StatusActive],
		counts[specdoc.StatusDraft],
		counts[specdoc.StatusComplete])

	writeSection(&b, reg, specs, "Active Changes", specdoc.StatusActive)
	writeSection(&b, reg, specs, "Drafts", specdoc.StatusDraft)
	writeSection(&b, reg, specs, "Complete", specdoc.StatusComplete)

	return []byte(b.String())
}

// WriteIndex regenerates specs/INDEX.md atomically.
func WriteIndex(reg *registry.Registry) (string, error) {
	path := filepath.Join(reg.Dir, registry.IndexFile)
	if err := atomicWriteFile(path, Index(reg)); err != nil {
		return "", fmt.Errorf("writing index: %w", err)
	}
	return path, nil
}

// sortedSpecs orders specs for the index: status priority (active,
// draft, complete), then created date descending, then id ascending.
func sortedSpecs(reg *registry.Registry) []*specdoc.Spec {
	var specs []*specdoc.Spec
	for _, id := range reg.SpecIDs() {
		specs = append(specs, reg.Specs[id])
	}
	sort.SliceStable(specs, func(i, j int) bool {
		a, b := specs[i], specs[j]
		if a.Status.SortRank() != b.Status.SortRank() {
			return a.Status.SortRank() < b.Status.SortRank()
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.ID < b.ID
	})
	return specs
}

func writeSection(b *strings.Builder, reg *registry.Registry, specs []*specdoc.Spec, heading string, status specdoc.Status) {
	fmt.Fprintf(b, "## %s\n\n", heading)

	var rows []*specdoc.Spec
	for _, s := range specs {
		if s.Status == status {
			rows = append(rows, s)
		}
	}

	if len(rows) == 0 {
		b.WriteString("*None*\n\n")
		return
	}

	b.WriteString("| Change | Type | Spec | Issue | Since |\n")
	b.WriteString("|--------|------|------|-------|-------|\n")
	for _, s := range rows {
		rel := relPath(reg.Dir, s.Path)
		fmt.Fprintf(b, "| %s | %s | [%s](%s) | %s | %s |\n",
			s.Title, s.Type, rel, rel, s.IssueRef, s.Created.Format("2006-01-02"))
	}
	b.WriteString("\n")
}

// relPath makes a document path relative to the specs dir for stable,
// machine-independent links.
func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
