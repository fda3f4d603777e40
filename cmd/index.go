package cmd

import (
	"encoding/json"
	"fmt"

	"spectree/internal/registry"
	"spectree/internal/render"

	"github.com/spf13/cobra"
)

// newIndexCmd creates the index command.
func newIndexCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Regenerate the spec index",
		Long: `Regenerate specs/INDEX.md from the current spec tree.

The index is a disposable cache: it is recomputed in full from the
registry and written atomically, so a concurrent reader never sees a
partial file. The tree must validate cleanly first; a broken registry
would produce a misleading index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			return runGenerate(app, render.WriteIndex)
		},
	}

	return cmd
}

// newSnapshotCmd creates the snapshot command.
func newSnapshotCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Regenerate the spec snapshot rollup",
		Long: `Regenerate specs/SNAPSHOT.md from the current spec tree.

The snapshot is recomputed entirely from scratch on every run, never
patched incrementally, so its aggregates can never go stale.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			return runGenerate(app, render.WriteSnapshot)
		},
	}

	return cmd
}

// runGenerate loads and validates the registry, then runs one of the
// artifact generators over it. Generators only ever consume a
// registry that passed validation.
func runGenerate(app *App, generate func(*registry.Registry) (string, error)) error {
	reg, violations, err := app.LoadRegistry()
	if err != nil {
		return err
	}
	violations = append(violations, registry.Validate(reg)...)
	if len(violations) > 0 {
		registry.Sort(violations)
		return reportViolations(app, violations, len(reg.AllSpecs()))
	}

	path, err := generate(reg)
	if err != nil {
		return err
	}

	if app.JSON {
		return json.NewEncoder(app.Out).Encode(toResult(nil))
	}
	fmt.Fprintf(app.Out, "%s %s\n", app.SuccessColor("✓"), fmt.Sprintf("Generated %s", path))
	return nil
}
