// Package config handles spectree configuration loading and defaults.
// Configuration lives at specs/config.yaml and is read fresh on every
// invocation, like everything else in the registry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the specs directory.
const FileName = "config.yaml"

// Config represents the contents of specs/config.yaml.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Gate    GateConfig    `yaml:"gate"`
}

type ProjectConfig struct {
	Name string `yaml:"name"`
}

// GateConfig controls the write gate's view of the repository.
type GateConfig struct {
	// TrackedRoots are glob patterns for the directory trees whose
	// writes require a governing spec. The specs directory itself is
	// always tracked in addition to these.
	TrackedRoots []string `yaml:"tracked_roots"`

	// TestDirs are path segments treated as test locations; writes
	// there are not implementation writes for gating purposes.
	TestDirs []string `yaml:"test_dirs"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Project: ProjectConfig{
			Name: "specs",
		},
		Gate: GateConfig{
			TrackedRoots: []string{"components/*"},
			TestDirs:     []string{"tests"},
		},
	}
}

// Load reads config.yaml from path and applies defaults for missing
// fields. A missing file is not an error: the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Gate.TrackedRoots) == 0 {
		cfg.Gate.TrackedRoots = Default().Gate.TrackedRoots
	}
	if len(cfg.Gate.TestDirs) == 0 {
		cfg.Gate.TestDirs = Default().Gate.TestDirs
	}

	return cfg, nil
}

// Write writes the provided configuration to path.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
