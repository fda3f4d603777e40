package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"spectree/internal/gate"

	"github.com/spf13/cobra"
)

// errBlocked forces the non-zero exit that tells the host to refuse
// the write, after the decision has been printed.
var errBlocked = errors.New("write blocked")

// newHookCmd creates the hook command group.
func newHookCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Hook entry points invoked by the host process",
	}

	cmd.AddCommand(newValidateWriteCmd(provider))

	return cmd
}

// newValidateWriteCmd creates the hook validate-write subcommand.
func newValidateWriteCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-write",
		Short: "Decide whether a proposed file write may proceed",
		Long: `Read a write-request descriptor from stdin and decide whether the
write may proceed given the current spec registry.

The descriptor is a JSON object: {"path": ..., "summary": ..., "tool": ...}.
The decision is printed to stdout; exit status 0 means approve, any
other status means the host must block the write.

The gate fails closed: if the registry cannot be loaded or the request
cannot be fully evaluated, the write is blocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			req, err := readRequest(cmd.InOrStdin())
			if err != nil {
				return emitDecision(app, gate.Decision{
					Action: gate.Block, Reason: gate.ReasonPolicyError,
					Message: fmt.Sprintf("cannot read write request: %v", err),
				})
			}

			// Registry failures block rather than crash the host: the
			// gate must never silently allow a write it could not
			// evaluate against current spec state.
			reg, _, err := app.LoadRegistry()
			if err != nil {
				return emitDecision(app, gate.Decision{
					Action: gate.Block, Reason: gate.ReasonPolicyError,
					Message: fmt.Sprintf("cannot load registry: %v", err),
				})
			}

			g := gate.New(reg, app.Config.Gate, app.RepoRoot())
			return emitDecision(app, g.Evaluate(req))
		},
	}

	return cmd
}

func readRequest(in io.Reader) (gate.Request, error) {
	var req gate.Request
	dec := json.NewDecoder(in)
	if err := dec.Decode(&req); err != nil {
		return gate.Request{}, err
	}
	if req.TargetPath == "" {
		return gate.Request{}, errors.New("request has no path")
	}
	return req, nil
}

// emitDecision prints the decision and maps it onto the exit status
// contract (0 = approve, non-zero = block).
func emitDecision(app *App, d gate.Decision) error {
	if app.JSON {
		result := Result{Success: d.Allowed(), Errors: []ErrorJSON{}, Decision: &d}
		if err := json.NewEncoder(app.Out).Encode(result); err != nil {
			return err
		}
	} else {
		verdict := "block"
		if d.Allowed() {
			verdict = app.SuccessColor("approve")
		}
		fmt.Fprintf(app.Out, "%s (%s): %s\n", verdict, d.Reason, d.Message)
	}

	if !d.Allowed() {
		return errBlocked
	}
	return nil
}
