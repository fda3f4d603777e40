package render

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"spectree/internal/registry"
	"spectree/internal/specdoc"
)

// Rollup is the aggregate view SNAPSHOT.md is rendered from. It is
// recomputed entirely from scratch on every invocation, never patched
// incrementally, so it can never drift from the documents on disk.
type Rollup struct {
	ByStatus map[specdoc.Status]int      `json:"by_status"`
	ByType   map[specdoc.ChangeType]int  `json:"by_type"`
	InFlight []string                    `json:"in_flight"`
	Issues   map[specdoc.IssueStatus]int `json:"issues"`
}

// BuildRollup computes the full rollup from the registry.
func BuildRollup(reg *registry.Registry) *Rollup {
	r := &Rollup{
		ByStatus: make(map[specdoc.Status]int),
		ByType:   make(map[specdoc.ChangeType]int),
		Issues:   make(map[specdoc.IssueStatus]int),
	}

	for _, id := range reg.SpecIDs() {
		spec := reg.Specs[id]
		r.ByStatus[spec.Status]++
		r.ByType[spec.Type]++
		if spec.InFlight() {
			r.InFlight = append(r.InFlight, spec.ID)
		}
	}
	sort.Strings(r.InFlight)

	for _, issue := range reg.AllIssues() {
		r.Issues[issue.Status]++
	}

	return r
}

// Snapshot renders SNAPSHOT.md content from a registry.
func Snapshot(reg *registry.Registry) []byte {
	rollup := BuildRollup(reg)

	var b strings.Builder
	b.WriteString("# Spec Snapshot\n\n")
	b.WriteString("Current state of all tracked changes, recomputed from the spec tree.\n\n")

	b.WriteString("## By Status\n\n")
	for _, status := range []specdoc.Status{specdoc.StatusActive, specdoc.StatusDraft, specdoc.StatusComplete} {
		fmt.Fprintf(&b, "- %s: %d\n", status, rollup.ByStatus[status])
	}
	b.WriteString("\n## By Change Type\n\n")
	for _, ct := range []specdoc.ChangeType{specdoc.TypeFeature, specdoc.TypeBugfix, specdoc.TypeRefactor} {
		fmt.Fprintf(&b, "- %s: %d\n", ct, rollup.ByType[ct])
	}

	b.WriteString("\n## In Flight\n\n")
	if len(rollup.InFlight) == 0 {
		b.WriteString("*No changes in flight*\n")
	} else {
		for _, id := range rollup.InFlight {
			spec := reg.Specs[id]
			fmt.Fprintf(&b, "- %s (%s): %s\n", id, spec.Status, spec.Title)
		}
	}

	b.WriteString("\n## Active Changes\n\n")
	active := activeSpecs(reg)
	if len(active) == 0 {
		b.WriteString("*No active changes yet*\n")
	} else {
		for _, spec := range active {
			rel := relPath(reg.Dir, spec.Path)
			fmt.Fprintf(&b, "### %s\n\n", spec.Title)
			fmt.Fprintf(&b, "**Spec:** [%s](%s)\n", rel, rel)
			if spec.IssueRef != "" {
				fmt.Fprintf(&b, "**Issue:** %s\n", spec.IssueRef)
			}
			if overview := extractOverview(spec.Body); overview != "" {
				fmt.Fprintf(&b, "\n%s\n", overview)
			}
			b.WriteString("\n---\n\n")
		}
	}

	return []byte(b.String())
}

// WriteSnapshot regenerates specs/SNAPSHOT.md atomically.
func WriteSnapshot(reg *registry.Registry) (string, error) {
	path := filepath.Join(reg.Dir, registry.SnapshotFile)
	if err := atomicWriteFile(path, Snapshot(reg)); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}

func activeSpecs(reg *registry.Registry) []*specdoc.Spec {
	var active []*specdoc.Spec
	for _, id := range reg.SpecIDs() {
		if spec := reg.Specs[id]; spec.Status == specdoc.StatusActive {
			active = append(active, spec)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Title < active[j].Title })
	return active
}

// extractOverview returns the text of the "## Overview" section of a
// spec body, if present.
func extractOverview(body string) string {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "## Overview" {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return ""
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
