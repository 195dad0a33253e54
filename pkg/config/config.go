// Package config loads dndtree settings from .dndtree/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/policy"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-project settings directory.
	DirName = ".dndtree"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"
)

// Config holds user settings. Zero fields fall back to Default().
type Config struct {
	Indentation float64      `yaml:"indentation,omitempty"` // offset units per depth level (project, move)
	Columns     int          `yaml:"columns,omitempty"`     // terminal cells per depth level in the TUI
	ExpandAll   bool         `yaml:"expand_all,omitempty"`  // start with every container open
	Expanded    []string     `yaml:"expanded,omitempty"`    // keys open at startup
	Policy      policy.Rules `yaml:"policy,omitempty"`
	StateDir    string       `yaml:"state_dir,omitempty"` // where tree-state.json lives

	// Path is the file this config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Indentation: 48,
		Columns:     4,
	}
}

// ExpandedKeys returns Expanded as keys.
func (c Config) ExpandedKeys() []model.Key {
	out := make([]model.Key, 0, len(c.Expanded))
	for _, k := range c.Expanded {
		out = append(out, model.Key(k))
	}
	return out
}

// Validate rejects settings the engine can not work with.
func (c Config) Validate() error {
	if c.Indentation <= 0 {
		return fmt.Errorf("indentation must be positive, got %v", c.Indentation)
	}
	if c.Columns <= 0 {
		return fmt.Errorf("columns must be positive, got %d", c.Columns)
	}
	if c.Policy.MaxDepth != nil && *c.Policy.MaxDepth < 0 {
		return fmt.Errorf("policy.max_depth must not be negative, got %d", *c.Policy.MaxDepth)
	}
	return nil
}

// Load reads the config at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.Path = path
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Dir(path)
	} else {
		cfg.StateDir = expandHome(cfg.StateDir)
		if !filepath.IsAbs(cfg.StateDir) {
			cfg.StateDir = filepath.Join(filepath.Dir(filepath.Dir(path)), cfg.StateDir)
		}
	}
	return cfg, nil
}

// LoadFrom finds the nearest config walking up from dir. Without one it
// returns Default() with StateDir set to dir/.dndtree.
func LoadFrom(dir string) (Config, error) {
	root, ok := findRoot(dir)
	if !ok {
		cfg := Default()
		cfg.StateDir = filepath.Join(dir, DirName)
		return cfg, nil
	}
	path := filepath.Join(root, DirName, FileName)
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.StateDir = filepath.Join(root, DirName)
		return cfg, nil
	}
	return cfg, err
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
