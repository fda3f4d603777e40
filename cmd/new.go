package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spectree/internal/registry"
	"spectree/internal/specdoc"

	"github.com/spf13/cobra"
)

// newNewCmd creates the new command group for scaffolding documents.
func newNewCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a new change spec or issue",
	}

	cmd.AddCommand(newNewChangeCmd(provider))
	cmd.AddCommand(newNewIssueCmd(provider))

	return cmd
}

func newNewChangeCmd(provider *AppProvider) *cobra.Command {
	var (
		changeType string
		issueRef   string
		scope      []string
	)

	cmd := &cobra.Command{
		Use:   "change <title>",
		Short: "Scaffold a draft change spec under changes/open",
		Long: `Create a new change spec directory with the next free id and a
SPEC.md pre-filled with draft front matter. The document starts as a
draft; edit it, then move it through active to complete as the change
progresses.

Examples:
  spec new change "Add login" --issue 42 --scope components/auth`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			if changeType != "" {
				if _, ok := specdoc.ParseChangeType(changeType); !ok {
					return fmt.Errorf("unknown change type %q (want feature, bugfix, or refactor)", changeType)
				}
			}

			reg, _, err := app.LoadRegistry()
			if err != nil {
				return err
			}

			title := args[0]
			id := nextID(reg.SpecIDs())
			dir := filepath.Join(app.SpecsDir, registry.ChangesDir, specdoc.DirOpen,
				id+"-"+slugify(title))
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating spec directory: %w", err)
			}

			path := filepath.Join(dir, specdoc.SpecFileName)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("spec already exists at %s", path)
			}

			content := renderSpecStub(id, title, changeType, issueRef, scope)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing spec: %w", err)
			}

			fmt.Fprintf(app.Out, "%s Created %s\n", app.SuccessColor("✓"), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&changeType, "type", "t", "feature", "Change type (feature, bugfix, refactor)")
	cmd.Flags().StringVar(&issueRef, "issue", "", "Id of the issue this change addresses")
	cmd.Flags().StringArrayVar(&scope, "scope", nil, "Path pattern the change claims (repeatable)")

	return cmd
}

func newNewIssueCmd(provider *AppProvider) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "issue <title>",
		Short: "Scaffold an open issue under issues/open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			reg, _, err := app.LoadRegistry()
			if err != nil {
				return err
			}

			var ids []string
			for _, issue := range reg.AllIssues() {
				ids = append(ids, issue.ID)
			}

			title := args[0]
			id := nextID(ids)
			path := filepath.Join(app.SpecsDir, registry.IssuesDir, specdoc.DirOpen,
				id+"-"+slugify(title)+".md")

			content := renderIssueStub(id, title, priority)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing issue: %w", err)
			}

			fmt.Fprintf(app.Out, "%s Created %s\n", app.SuccessColor("✓"), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Issue priority (high, medium, low)")

	return cmd
}

// nextID allocates the next numeric id: one past the highest numeric
// id already in use, zero-padded to at least three digits. Non-numeric
// ids are ignored for allocation purposes.
func nextID(existing []string) string {
	max := 0
	for _, id := range existing {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%03d", max+1)
}

// slugify derives a directory slug from a title: lowercase, with runs
// of non-alphanumeric characters collapsed to single hyphens.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func renderSpecStub(id, title, changeType, issueRef string, scope []string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %q\n", id)
	fmt.Fprintf(&b, "title: %q\n", title)
	if changeType != "" {
		fmt.Fprintf(&b, "type: %s\n", changeType)
	}
	b.WriteString("status: draft\n")
	fmt.Fprintf(&b, "created: %s\n", time.Now().UTC().Format("2006-01-02"))
	if issueRef != "" {
		fmt.Fprintf(&b, "issue: %q\n", issueRef)
	}
	if len(scope) > 0 {
		b.WriteString("scope:\n")
		for _, s := range scope {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}
	b.WriteString("---\n\n## Overview\n\nDescribe the change.\n")
	return b.String()
}

func renderIssueStub(id, title, priority string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %q\n", id)
	fmt.Fprintf(&b, "title: %q\n", title)
	b.WriteString("status: open\n")
	if priority != "" {
		fmt.Fprintf(&b, "priority: %s\n", priority)
	}
	fmt.Fprintf(&b, "created: %s\n", time.Now().UTC().Format("2006-01-02"))
	b.WriteString("---\n\n# ")
	b.WriteString(title)
	b.WriteString("\n")
	return b.String()
}
