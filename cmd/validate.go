package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"spectree/internal/registry"

	"github.com/spf13/cobra"
)

// errExit forces a non-zero exit after the JSON result has already
// been written to stdout.
var errExit = errors.New("validation failed")

// newValidateCmd creates the validate command.
func newValidateCmd(provider *AppProvider) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate spec documents for consistency",
		Long: `Validate spec documents against the registry.

With a path, reports problems in that document (cross-references are
still checked against the whole tree). With --all, reports every
problem in the tree. Validation never stops at the first error: the
complete set is collected and reported in one pass.

Errors are written to stderr, one per line, as <path>:<field>: <message>,
followed by a trailing "validation failed: N error(s)" summary line.
Exit status is 0 only when no errors were found.

Examples:
  spec validate specs/changes/open/042-add-login/SPEC.md
  spec validate --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			if !all && len(args) == 0 {
				return fmt.Errorf("provide a path or use --all")
			}

			reg, violations, err := app.LoadRegistry()
			if err != nil {
				return err
			}
			violations = append(violations, registry.Validate(reg)...)

			if len(args) == 1 {
				target, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving %s: %w", args[0], err)
				}
				if !hasDocument(reg, violations, target) {
					return fmt.Errorf("no spec document found at %s", args[0])
				}
				violations = filterByPath(violations, target)
			}
			registry.Sort(violations)

			return reportViolations(app, violations, len(reg.AllSpecs()))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Validate the entire tree")

	return cmd
}

// filterByPath keeps only violations attached to the given document.
func filterByPath(violations []registry.Violation, target string) []registry.Violation {
	var out []registry.Violation
	for _, v := range violations {
		if samePath(v.Path, target) {
			out = append(out, v)
		}
	}
	return out
}

// hasDocument reports whether target names a document the registry
// knows about: a parsed spec or issue, or a document whose parse
// failure is carried as a violation.
func hasDocument(reg *registry.Registry, violations []registry.Violation, target string) bool {
	for _, s := range reg.AllSpecs() {
		if samePath(s.Path, target) {
			return true
		}
	}
	for _, i := range reg.AllIssues() {
		if samePath(i.Path, target) {
			return true
		}
	}
	for _, v := range violations {
		if samePath(v.Path, target) {
			return true
		}
	}
	return false
}

// samePath compares a registry path against the absolute target. The
// registry path is made absolute the same way the argument was, so a
// relative invocation path matches the absolute paths the loader
// records.
func samePath(path, target string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path) == target
	}
	return abs == target
}

// reportViolations prints the violation set and returns a non-nil
// error when any were found, so the process exits 1.
func reportViolations(app *App, violations []registry.Violation, specCount int) error {
	if app.JSON {
		if err := json.NewEncoder(app.Out).Encode(toResult(violations)); err != nil {
			return err
		}
		if len(violations) > 0 {
			return errExit
		}
		return nil
	}

	for _, v := range violations {
		fmt.Fprintln(app.Err, v.String())
	}
	if len(violations) > 0 {
		return fmt.Errorf("validation failed: %d error(s)", len(violations))
	}

	fmt.Fprintln(app.Out, app.SuccessColor(fmt.Sprintf("✓ %d spec(s) valid", specCount)))
	return nil
}
