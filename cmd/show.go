package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"spectree/internal/specdoc"

	"github.com/spf13/cobra"
)

// newShowCmd creates the show command.
func newShowCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <spec-id>",
		Short: "Show details of a spec",
		Long: `Display detailed information about one registered spec, including
its cross-references and the specs that reference it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			reg, _, err := app.LoadRegistry()
			if err != nil {
				return err
			}

			id := args[0]
			spec, ok := reg.Specs[id]
			if !ok {
				return fmt.Errorf("no spec found with id %q", id)
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(ToSpecJSON(spec))
			}

			fmt.Fprintf(app.Out, "Spec: %s\n", spec.ID)
			fmt.Fprintf(app.Out, "Title: %s\n", spec.Title)
			fmt.Fprintf(app.Out, "Type: %s\n", spec.Type)
			fmt.Fprintf(app.Out, "Status: %s\n", spec.Status)
			fmt.Fprintf(app.Out, "Created: %s\n", spec.Created.Format("2006-01-02"))
			if spec.Completed != nil {
				fmt.Fprintf(app.Out, "Completed: %s\n", spec.Completed.Format("2006-01-02"))
			}
			if spec.IssueRef != "" {
				issueLine := spec.IssueRef
				if issue, ok := reg.Issues[spec.IssueRef]; ok {
					issueLine = fmt.Sprintf("%s (%s) %s", issue.ID, issue.Status, issue.Title)
				} else {
					issueLine = app.WarnColor(spec.IssueRef + " (not found)")
				}
				fmt.Fprintf(app.Out, "Issue: %s\n", issueLine)
			}
			if len(spec.Scope) > 0 {
				fmt.Fprintf(app.Out, "Scope: %s\n", strings.Join(spec.Scope, ", "))
			}
			fmt.Fprintf(app.Out, "Path: %s\n", spec.Path)

			// Outgoing references grouped by kind.
			outgoing := make(map[specdoc.RefKind][]string)
			for _, edge := range reg.Edges {
				if edge.From == spec.ID {
					outgoing[edge.Kind] = append(outgoing[edge.Kind], edge.To)
				}
			}
			for _, kind := range []specdoc.RefKind{specdoc.RefReferences, specdoc.RefSupersedes, specdoc.RefBlocks} {
				if targets := outgoing[kind]; len(targets) > 0 {
					label := strings.ToUpper(string(kind)[:1]) + string(kind)[1:]
					fmt.Fprintf(app.Out, "%s: %s\n", label, strings.Join(targets, ", "))
				}
			}

			// Incoming references.
			var incoming []string
			for _, edge := range reg.Edges {
				if edge.To == spec.ID {
					incoming = append(incoming, fmt.Sprintf("%s (%s)", edge.From, edge.Kind))
				}
			}
			if len(incoming) > 0 {
				fmt.Fprintf(app.Out, "Referenced by: %s\n", strings.Join(incoming, ", "))
			}

			return nil
		},
	}

	return cmd
}
