// Package config holds Gallery's runtime settings.
//
// Values come from DefaultConfig, then an optional YAML file
// (~/.gallery/config.yaml), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	// DBPath is the SQLite slide library.
	DBPath string `yaml:"db_path"`

	// LogPath receives JSON logs. The player owns the terminal, so logs
	// never go to stdout or stderr while it runs.
	LogPath string `yaml:"log_path"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`

	// Interval and Fade are used when a deck does not set its own.
	Interval time.Duration `yaml:"interval"`
	Fade     time.Duration `yaml:"fade"`

	// Policy is the default annotation policy name.
	Policy string `yaml:"policy"`

	// RecordPlayback appends transitions to the library's playback log
	// when the deck being played is stored there.
	RecordPlayback bool `yaml:"record_playback"`
}

// Dir returns the Gallery home directory (~/.gallery).
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".gallery")
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	dir := Dir()
	return Config{
		DBPath:         filepath.Join(dir, "gallery.db"),
		LogPath:        filepath.Join(dir, "gallery.log"),
		Interval:       4000 * time.Millisecond,
		Fade:           1000 * time.Millisecond,
		Policy:         "skip-to-first",
		RecordPlayback: true,
	}
}

// DefaultPath is the config file read by Load when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load returns DefaultConfig overlaid with the YAML file at path. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks durations and names.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.Fade < 0 {
		return fmt.Errorf("fade must not be negative, got %v", c.Fade)
	}
	switch c.Policy {
	case "", "skip-to-first", "skip-past":
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	return nil
}

// EnsureDirs creates parent directories for the database and log files.
func (c Config) EnsureDirs() error {
	for _, p := range []string{c.DBPath, c.LogPath} {
		if p == "" || p == ":memory:" {
			continue
		}
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
