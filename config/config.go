// Package config loads clabedit settings from a TOML file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds clabedit configuration.
type Config struct {
	Autosave  AutosaveConfig    `toml:"autosave"`
	EdgeDraw  EdgeDrawConfig    `toml:"edge_draw"`
	History   HistoryConfig     `toml:"history"`
	Endpoints map[string]string `toml:"endpoints"` // node kind -> interface pattern with {n}
}

// AutosaveConfig controls the debounced save behavior.
type AutosaveConfig struct {
	QuietMillis int `toml:"quiet_millis"` // trailing-edge debounce window
}

// EdgeDrawConfig controls interactive link drawing.
type EdgeDrawConfig struct {
	GraceMillis int `toml:"grace_millis"` // canvas-click suppression after a completed draw
}

// HistoryConfig controls the undo stack.
type HistoryConfig struct {
	Depth int `toml:"depth"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Autosave: AutosaveConfig{QuietMillis: 800},
		EdgeDraw: EdgeDrawConfig{GraceMillis: 300},
		History:  HistoryConfig{Depth: 50},
		Endpoints: map[string]string{
			"nokia_srlinux": "e1-{n}",
			"nokia_sros":    "eth{n}",
			"arista_ceos":   "eth{n}",
			"cisco_xrd":     "Gi0-0-0-{n}",
			"juniper_crpd":  "eth{n}",
			"linux":         "eth{n}",
		},
	}
}

// ConfigDir returns the directory holding the config file.
func ConfigDir() string {
	if dir := os.Getenv("CLABEDIT_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "clabedit")
}

// Load reads config from disk, falling back to defaults for anything
// missing or unreadable.
func Load() *Config {
	cfg := Default()
	path := filepath.Join(ConfigDir(), "config.toml")
	if _, err := os.Stat(path); err != nil {
		return cfg
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return Default()
	}
	if cfg.Autosave.QuietMillis <= 0 {
		cfg.Autosave.QuietMillis = Default().Autosave.QuietMillis
	}
	if cfg.EdgeDraw.GraceMillis < 0 {
		cfg.EdgeDraw.GraceMillis = Default().EdgeDraw.GraceMillis
	}
	if cfg.History.Depth <= 0 {
		cfg.History.Depth = Default().History.Depth
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "config.toml"))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// QuietPeriod returns the autosave debounce window as a duration.
func (c *Config) QuietPeriod() time.Duration {
	return time.Duration(c.Autosave.QuietMillis) * time.Millisecond
}

// GracePeriod returns the post-draw click suppression window.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.EdgeDraw.GraceMillis) * time.Millisecond
}
