package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "kvit-patch.yaml"

type Config struct {
	Workspace struct {
		Root           string   `yaml:"root"`
		PathSafetyMode string   `yaml:"path_safety_mode"` // "block" or "warn"
		DeniedPaths    []string `yaml:"denied_paths"`
	} `yaml:"workspace"`

	Patch PatchConfig `yaml:"patch"`

	Log LogConfig `yaml:"log"`
}

// PatchConfig controls how a patch is mapped onto the workspace and written back
type PatchConfig struct {
	Strip        int    `yaml:"strip"`         // leading path segments to drop (patch -pN)
	Reverse      bool   `yaml:"reverse"`       // apply the patch in reverse
	RejectFiles  *bool  `yaml:"reject_files"`  // nil = default true
	BackupSuffix string `yaml:"backup_suffix"` // keep original as <target><suffix> ("" = no backup)
	Jobs         int    `yaml:"jobs"`          // parallel targets (0 = GOMAXPROCS)
}

// LogConfig configures the structured log file
type LogConfig struct {
	File        string `yaml:"file"` // empty disables logging
	Development bool   `yaml:"development"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
}

// GetRejectFiles returns whether .rej files are written.
// Defaults to true.
func (p *PatchConfig) GetRejectFiles() bool {
	if p.RejectFiles == nil {
		return true
	}
	return *p.RejectFiles
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	if err := cfg.applyDefaults(); err != nil {
		// Only workspace resolution can fail, fall back to the relative root.
		cfg.Workspace.Root = "."
	}
	return &cfg
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() error {
	if c.Workspace.Root == "" {
		c.Workspace.Root = "."
	}
	absRoot, err := filepath.Abs(c.Workspace.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	c.Workspace.Root = absRoot

	if c.Workspace.PathSafetyMode == "" {
		c.Workspace.PathSafetyMode = "block"
	}

	if c.Patch.Strip < 0 {
		c.Patch.Strip = 0
	}

	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	return nil
}

// SetRoot overrides the workspace root, resolving it to an absolute path.
func (c *Config) SetRoot(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	c.Workspace.Root = absRoot
	return nil
}
