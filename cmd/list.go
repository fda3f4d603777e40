package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"spectree/internal/registry"
	"spectree/internal/specdoc"

	"github.com/spf13/cobra"
)

// newListCmd creates the list command.
func newListCmd(provider *AppProvider) *cobra.Command {
	var (
		status     string
		changeType string
		inFlight   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List specs with filtering",
		Long: `List registered specs.

By default, lists every spec in the registry. Use flags to filter by
status or change type.

Examples:
  spec list                    # List all specs
  spec list --status=active    # List active specs
  spec list --type=bugfix      # List bugfix specs
  spec list --in-flight        # List draft and active specs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			reg, _, err := app.LoadRegistry()
			if err != nil {
				return err
			}

			var statusFilter *specdoc.Status
			if status != "" {
				s, ok := specdoc.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q (want draft, active, or complete)", status)
				}
				statusFilter = &s
			}

			var typeFilter *specdoc.ChangeType
			if changeType != "" {
				t, ok := specdoc.ParseChangeType(changeType)
				if !ok {
					return fmt.Errorf("unknown change type %q (want feature, bugfix, or refactor)", changeType)
				}
				typeFilter = &t
			}

			specs := filterSpecs(reg, statusFilter, typeFilter, inFlight)

			if app.JSON {
				result := make([]SpecJSON, len(specs))
				for i, spec := range specs {
					result[i] = ToSpecJSON(spec)
				}
				return json.NewEncoder(app.Out).Encode(result)
			}

			if len(specs) == 0 {
				fmt.Fprintln(app.Out, "No specs found.")
				return nil
			}

			fmt.Fprintf(app.Out, "Specs (%d):\n\n", len(specs))
			for _, spec := range specs {
				fmt.Fprintf(app.Out, "  %s  [%s] [%s] %s\n",
					spec.ID, spec.Status, spec.Type, spec.Title)
				if spec.IssueRef != "" {
					fmt.Fprintf(app.Out, "       Issue: %s\n", spec.IssueRef)
				}
				if len(spec.Scope) > 0 {
					fmt.Fprintf(app.Out, "       Scope: %s\n", strings.Join(spec.Scope, ", "))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (draft, active, complete)")
	cmd.Flags().StringVarP(&changeType, "type", "t", "", "Filter by change type (feature, bugfix, refactor)")
	cmd.Flags().BoolVar(&inFlight, "in-flight", false, "List only draft and active specs")

	return cmd
}

// filterSpecs applies the list filters in index order.
func filterSpecs(reg *registry.Registry, status *specdoc.Status, changeType *specdoc.ChangeType, inFlight bool) []*specdoc.Spec {
	var specs []*specdoc.Spec
	for _, id := range reg.SpecIDs() {
		spec := reg.Specs[id]
		if status != nil && spec.Status != *status {
			continue
		}
		if changeType != nil && spec.Type != *changeType {
			continue
		}
		if inFlight && !spec.InFlight() {
			continue
		}
		specs = append(specs, spec)
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
