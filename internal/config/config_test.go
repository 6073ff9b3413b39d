package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "mlruns", cfg.MLRunsDir)
	assert.Equal(t, "0", cfg.ExperimentID)
	assert.Equal(t, []string{"meta.yaml", "models"}, cfg.SkipEntries)
	assert.Equal(t, SourceMLRuns, cfg.Source)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, filepath.Join("mlruns", "0"), cfg.ExperimentDir())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlboard.yaml")
	content := `
mlruns_dir: /data/mlruns
experiment_id: "42"
addr: 127.0.0.1:9000
watch_debounce: 2s
skip_entries: [meta.yaml, models, .trash]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/mlruns", cfg.MLRunsDir)
	assert.Equal(t, "42", cfg.ExperimentID)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, []string{"meta.yaml", "models", ".trash"}, cfg.SkipEntries)
	// untouched fields keep defaults
	assert.Equal(t, SourceMLRuns, cfg.Source)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_DefaultSearch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mlboard.yaml"), []byte("experiment_id: \"7\"\n"), 0644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "7", cfg.ExperimentID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MLBOARD_MLRUNS_DIR", "/srv/mlruns")
	t.Setenv("MLBOARD_SOURCE", SourceSnapshot)
	t.Setenv("MLBOARD_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("MLBOARD_SHUTDOWN_TIMEOUT", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/mlruns", cfg.MLRunsDir)
	assert.Equal(t, SourceSnapshot, cfg.Source)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EmptySkipEntries(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "mlboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skip_entries: []\n"), 0644))
	fromFile, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, fromFile.SkipEntries)
	assert.Empty(t, fromFile.SkipEntries)

	t.Setenv("MLBOARD_SKIP_ENTRIES", "")
	fromEnv, err := Load("")
	require.NoError(t, err)
	assert.NotNil(t, fromEnv.SkipEntries)
	assert.Empty(t, fromEnv.SkipEntries)

	assert.Equal(t, fromFile.SkipEntries, fromEnv.SkipEntries)
}

func TestLoad_EnvBadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MLBOARD_WATCH_DEBOUNCE", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MLBOARD_WATCH_DEBOUNCE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Source = "s3" }},
		{"empty experiment", func(c *Config) { c.ExperimentID = " " }},
		{"snapshot without path", func(c *Config) { c.Source = SourceSnapshot; c.SnapshotPath = "" }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"negative debounce", func(c *Config) { c.WatchDebounce = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
