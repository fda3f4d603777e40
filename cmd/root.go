package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"spectree/internal/config"
	"spectree/internal/registry"

	"github.com/spf13/cobra"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	SpecsDir   string
	JSONOutput bool
	Out        io.Writer
	Err        io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
// Used for testing commands with a test App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app: app,
		Out: app.Out,
		Err: app.Err,
	}
}

func (p *AppProvider) init() (*App, error) {
	specsDir, err := FindSpecsDir(p.SpecsDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(specsDir, config.FileName))
	if err != nil {
		return nil, err
	}

	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	return &App{
		SpecsDir: specsDir,
		Config:   cfg,
		Out:      out,
		Err:      errOut,
		JSON:     p.JSONOutput,
	}, nil
}

// FindSpecsDir locates the specs directory.
// If path is provided, it uses that directly.
// Otherwise, it walks up from the current directory looking for a
// specs/ directory containing a changes/ subdirectory.
func FindSpecsDir(path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("cannot access specs directory %s: %w", path, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("specs path is not a directory: %s", path)
		}
		return path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get current directory: %w", err)
	}

	dir := cwd
	for {
		specsDir := filepath.Join(dir, "specs")
		info, err := os.Stat(filepath.Join(specsDir, registry.ChangesDir))
		if err == nil && info.IsDir() {
			return specsDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no specs directory found (searched from %s to /; run 'spec init' first)", cwd)
		}
		dir = parent
	}
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}

	rootCmd := newRootCmd(provider)
	return rootCmd.Execute()
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spec",
		Short: "Registry and write gate for spec-driven development",
		Long: `Spectree maintains a registry of change specs and issues stored as
markdown documents with YAML front matter under specs/, validates their
consistency, regenerates the index and snapshot artifacts, and gates
file writes against the declared state of each change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.SpecsDir, "specs-dir", "", "Path to the specs directory (default: search from cwd)")

	// Register all commands
	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newNewCmd(provider))
	rootCmd.AddCommand(newValidateCmd(provider))
	rootCmd.AddCommand(newIndexCmd(provider))
	rootCmd.AddCommand(newSnapshotCmd(provider))
	rootCmd.AddCommand(newListCmd(provider))
	rootCmd.AddCommand(newShowCmd(provider))
	rootCmd.AddCommand(newHookCmd(provider))

	return rootCmd
}
