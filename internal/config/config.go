// Package config provides reading and writing of vellum configuration.
// Supports both global (~/.vellum/config.yaml) and local (.vellum/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.vellum/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is repository-specific config in .vellum/config.yaml
	ScopeLocal
)

// User represents the acting principal stored in the repository config.
// Every write records this identity as the creator.
type User struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Limits holds size limit configuration options. Pointer fields distinguish
// "unset" from explicit zero.
type Limits struct {
	MaxPath    *int   `yaml:"max_path,omitempty"`
	MaxContent *int64 `yaml:"max_content,omitempty"`
}

// Default limits applied when not configured.
const (
	DefaultMaxPath    = 1024
	DefaultMaxContent = 500 * 1024 * 1024 // 500 MB
)

// Config is the top-level configuration document.
type Config struct {
	User    User   `yaml:"user,omitempty"`
	Limits  Limits `yaml:"limits,omitempty"`
	BlobDir string `yaml:"blob_dir,omitempty"`
}

// MaxPath returns the configured maximum path length or the default.
func (c *Config) MaxPath() int {
	if c.Limits.MaxPath != nil {
		return *c.Limits.MaxPath
	}
	return DefaultMaxPath
}

// MaxContent returns the configured maximum content size or the default.
func (c *Config) MaxContent() int64 {
	if c.Limits.MaxContent != nil {
		return *c.Limits.MaxContent
	}
	return DefaultMaxContent
}

// globalPath returns the path of the global config file.
func globalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoConfigPath, err)
	}
	return filepath.Join(home, ".vellum", "config.yaml"), nil
}

// localPath returns the path of the local config file in the current directory.
func localPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoConfigPath, err)
	}
	return filepath.Join(wd, ".vellum", "config.yaml"), nil
}

// Load reads configuration, preferring local over global. A missing file is
// not an error; it yields defaults.
func Load() (*Config, error) {
	lp, err := localPath()
	if err == nil {
		if cfg, err := loadFile(lp); err == nil {
			return cfg, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	gp, err := globalPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadFile(gp)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to the given scope, creating the directory
// if needed.
func Save(cfg *Config, scope Scope) error {
	var path string
	var err error
	switch scope {
	case ScopeLocal:
		path, err = localPath()
	default:
		path, err = globalPath()
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
