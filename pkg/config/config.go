// Package config loads the .mast/config.yaml workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Workspace holds the .mast/config.yaml workspace-level configuration.
// Every field is optional; the zero value means "use the built-in default".
type Workspace struct {
	// PrettySave writes indented JSON instead of canonical when saving.
	PrettySave bool `yaml:"pretty_save,omitempty"`
	// AutoFixOnSave runs the auto-fixer before every save.
	AutoFixOnSave bool `yaml:"autofix_on_save,omitempty"`
	// AutoMigrate converts legacy files in memory on load.
	AutoMigrate bool `yaml:"auto_migrate,omitempty"`
	// DiagramFormat selects the default diagram output (mermaid or ascii).
	DiagramFormat string `yaml:"diagram_format,omitempty"`
	// GlamourStyle names the markdown rendering style for reports and help.
	GlamourStyle string `yaml:"glamour_style,omitempty"`
	// HistoryFile overrides the shell's readline history location.
	HistoryFile string `yaml:"history_file,omitempty"`
}

// Load reads .mast/config.yaml from the given directory. Returns nil (not
// an error) if the file doesn't exist. MAST_CONFIG overrides the location.
func Load(dir string) (*Workspace, error) {
	path := os.Getenv("MAST_CONFIG")
	if path == "" {
		path = filepath.Join(dir, ".mast", "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workspace config: %w", err)
	}

	var cfg Workspace
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse workspace config: %w", err)
	}
	return &cfg, nil
}

// Discover walks up from dir looking for a .mast/config.yaml, stopping at
// the filesystem root. Returns nil when no workspace is configured.
func Discover(dir string) (*Workspace, error) {
	if os.Getenv("MAST_CONFIG") != "" {
		return Load(dir)
	}
	cur, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		candidate := filepath.Join(cur, ".mast", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return Load(cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, nil
		}
		cur = parent
	}
}
