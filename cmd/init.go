package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"spectree/internal/config"
	"spectree/internal/registry"
	"spectree/internal/specdoc"

	"github.com/spf13/cobra"
)

// newInitCmd creates the init command.
// Note: init doesn't use the provider's App since it creates the specs
// directory the App would be resolved from.
func newInitCmd(provider *AppProvider) *cobra.Command {
	var (
		force       bool
		projectName string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a spec tree in the current directory",
		Long:  `Create the specs/ directory layout and default configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := provider.Out
			if out == nil {
				out = os.Stdout
			}
			return runInit(out, provider.SpecsDir, force, projectName)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Force initialization even if specs/ exists")
	cmd.Flags().StringVar(&projectName, "project", "specs", "Project name recorded in config")

	return cmd
}

func runInit(out io.Writer, specsDir string, force bool, projectName string) error {
	if projectName == "" {
		return errors.New("project name cannot be empty")
	}

	if specsDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		specsDir = filepath.Join(cwd, "specs")
	}

	absPath, err := filepath.Abs(specsDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absPath, registry.ChangesDir)); err == nil {
		if !force {
			return errors.New("spec tree already exists (use --force to reinitialize)")
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking specs directory: %w", err)
	}

	for _, dir := range []string{
		filepath.Join(absPath, registry.ChangesDir, specdoc.DirOpen),
		filepath.Join(absPath, registry.ChangesDir, specdoc.DirComplete),
		filepath.Join(absPath, registry.IssuesDir, specdoc.DirOpen),
		filepath.Join(absPath, registry.IssuesDir, specdoc.DirComplete),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	cfg := config.Default()
	cfg.Project.Name = projectName
	if err := config.Write(filepath.Join(absPath, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Fprintf(out, "Initialized spec tree at %s\n", absPath)
	return nil
}
