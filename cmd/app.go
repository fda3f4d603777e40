// Package cmd implements the spec command-line interface.
package cmd

import (
	"io"
	"os"
	"path/filepath"

	"spectree/internal/config"
	"spectree/internal/registry"

	"golang.org/x/term"
)

// App holds application state shared across commands.
type App struct {
	SpecsDir string // path to the specs directory
	Config   config.Config
	Out      io.Writer
	Err      io.Writer
	JSON     bool // output in JSON format
}

// RepoRoot returns the directory the specs dir lives in. Gate requests
// and tracked-root patterns are resolved relative to it.
func (a *App) RepoRoot() string {
	return filepath.Dir(a.SpecsDir)
}

// LoadRegistry rebuilds the registry from the filesystem. Every
// invocation reloads from scratch; no state survives between calls.
func (a *App) LoadRegistry() (*registry.Registry, []registry.Violation, error) {
	return registry.Load(a.SpecsDir)
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[38;5;214m" + s + "\033[0m"
	}
	return s
}
