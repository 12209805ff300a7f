// Package rdsconfig holds the YAML-driven runtime configuration for the RDS
// subsystem and its operator CLI.
package rdsconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	// CatalogPath is the sqlite file backing RDS_catalog and RDS.
	CatalogPath string `yaml:"catalog_path"`

	// LogDir, if set, enables rdslog file output. Empty disables logging.
	LogDir string `yaml:"log_dir"`

	// RebuildExpired is the default passed to prepare() when the caller
	// does not explicitly request a rebuild.
	RebuildExpired bool `yaml:"rebuild_expired"`

	Watcher WatcherConfig `yaml:"watcher"`
}

// WatcherConfig controls the optional fsnotify-based invalidation watcher.
type WatcherConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MarkerDir  string `yaml:"marker_dir"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// Default returns a Config usable out of the box for local development.
func Default() *Config {
	return &Config{
		CatalogPath:    "tagrds.db",
		LogDir:         "",
		RebuildExpired: false,
		Watcher: WatcherConfig{
			Enabled:    false,
			MarkerDir:  "",
			DebounceMS: 500,
		},
	}
}

// Load reads a YAML config file, falling back to Default() for any field
// left unset in the file. A missing file is not an error; it yields the
// default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("rdsconfig: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("rdsconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}
