/*
PURPOSE:
  Defines the configuration structure and loading logic for mlboard.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the mlruns location, experiment, and listen address.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variables overrides (MLBOARD_...).
  - The dashboard can run from a static snapshot instead of the live tree.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/server, internal/watch
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config file falls back to defaults.
  - Validate() wraps ErrInvalidConfig.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., experiment "0", port 8000).

USAGE:
  cfg, err := config.Load("mlboard.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct, DefaultConfig() and applyEnv().

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SourceMLRuns reads the tracking directory on every request.
	SourceMLRuns = "mlruns"
	// SourceSnapshot serves a previously exported metrics.json.
	SourceSnapshot = "snapshot"

	envPrefix = "MLBOARD_"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultFiles are searched, in order, when no --config path is given.
var DefaultFiles = []string{"mlboard.yaml", ".mlboard.yaml"}

// Config represents the full configuration for mlboard.
type Config struct {
	MLRunsDir    string `yaml:"mlruns_dir"`
	ExperimentID string `yaml:"experiment_id"`
	// SkipEntries are directory entries under the experiment that are never runs.
	SkipEntries []string `yaml:"skip_entries"`

	Source       string `yaml:"source"`
	SnapshotPath string `yaml:"snapshot_path"`
	CSVPath      string `yaml:"csv_path"`

	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MLRunsDir:       "mlruns",
		ExperimentID:    "0",
		SkipEntries:     []string{"meta.yaml", "models"},
		Source:          SourceMLRuns,
		SnapshotPath:    "metrics.json",
		Addr:            ":8000",
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 5 * time.Second,
		WatchDebounce:   500 * time.Millisecond,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// ExperimentDir is the directory holding one subdirectory per run.
func (c *Config) ExperimentDir() string {
	return filepath.Join(c.MLRunsDir, c.ExperimentID)
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultFiles in order.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if path != "" && data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays MLBOARD_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"MLRUNS_DIR":    &cfg.MLRunsDir,
		"EXPERIMENT_ID": &cfg.ExperimentID,
		"SOURCE":        &cfg.Source,
		"SNAPSHOT_PATH": &cfg.SnapshotPath,
		"CSV_PATH":      &cfg.CSVPath,
		"ADDR":          &cfg.Addr,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "SKIP_ENTRIES"); ok {
		cfg.SkipEntries = splitList(v)
	}

	durations := map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT": &cfg.ShutdownTimeout,
		"WATCH_DEBOUNCE":   &cfg.WatchDebounce,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}
	return nil
}

// splitList parses a comma-separated env value. An empty value yields an
// empty non-nil list, matching an explicit `[]` in YAML.
func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks field combinations that would fail later at runtime.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceMLRuns, SourceSnapshot:
	default:
		return fmt.Errorf("%w: source must be %q or %q, got %q", ErrInvalidConfig, SourceMLRuns, SourceSnapshot, c.Source)
	}
	if strings.TrimSpace(c.ExperimentID) == "" {
		return fmt.Errorf("%w: experiment_id is empty", ErrInvalidConfig)
	}
	if c.Source == SourceSnapshot && c.SnapshotPath == "" {
		return fmt.Errorf("%w: snapshot_path is required for source %q", ErrInvalidConfig, SourceSnapshot)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("%w: watch_debounce must be positive", ErrInvalidConfig)
	}
	return nil
}
