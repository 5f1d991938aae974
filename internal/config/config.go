// Package config loads and saves the trace settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for trace settings. Load references these; no other code
// should duplicate them.
const (
	DefaultDirName       = ".qwen-trace"
	DefaultRetentionDays = 30

	fileName = "settings.yaml"
)

// Settings is the persisted trace configuration.
type Settings struct {
	Enabled       *bool  `yaml:"enabled,omitempty"`
	Dir           string `yaml:"dir,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`
}

// IsEnabled resolves the enabled flag; tracing defaults to on.
func (s *Settings) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SetEnabled records an explicit enabled value.
func (s *Settings) SetEnabled(v bool) {
	s.Enabled = &v
}

// New returns settings with defaults populated. The data directory lives
// under the user home directory when resolvable, else the working directory.
func New() *Settings {
	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	return &Settings{
		Dir:           filepath.Join(base, DefaultDirName),
		RetentionDays: DefaultRetentionDays,
	}
}

// Path returns the settings file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads settings from dir, filling missing fields with defaults. A
// missing file is not an error: defaults are returned.
func Load(dir string) (*Settings, error) {
	cfg := New()

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading trace settings: %w", err)
	}

	var fileCfg Settings
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing trace settings: %w", err)
	}

	if fileCfg.Enabled != nil {
		cfg.Enabled = fileCfg.Enabled
	}
	if fileCfg.Dir != "" {
		cfg.Dir = fileCfg.Dir
	}
	if fileCfg.RetentionDays > 0 {
		cfg.RetentionDays = fileCfg.RetentionDays
	}
	return cfg, nil
}

// Save writes the settings file into dir, creating the directory if needed.
func Save(dir string, cfg *Settings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling trace settings: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0o644); err != nil {
		return fmt.Errorf("writing trace settings: %w", err)
	}
	return nil
}
