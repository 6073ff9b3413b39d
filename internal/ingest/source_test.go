package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

func TestSnapshotSource_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "metrics.json")
	records := []model.RunRecord{
		{Model: "ridge", TestR2: 0.9, RunID: "aaa"},
		{Model: "lasso", TestR2: 0.7, RunID: "bbb", Timestamp: "2024-01-02T03:04:05Z"},
	}
	require.NoError(t, output.WriteSnapshot(path, records))

	got, err := SnapshotSource{Path: path}.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestSnapshotSource_Missing(t *testing.T) {
	_, err := SnapshotSource{Path: filepath.Join(t.TempDir(), "metrics.json")}.Runs(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotSource_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model":"not an array"}`), 0644))

	_, err := SnapshotSource{Path: path}.Runs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode snapshot")
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MLRunsDir = "/data/mlruns"

	src, err := NewSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, DirSource{
		Root:    filepath.Join("/data/mlruns", "0"),
		Options: Options{SkipEntries: []string{"meta.yaml", "models"}},
	}, src)

	cfg.Source = config.SourceSnapshot
	src, err = NewSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, SnapshotSource{Path: "metrics.json"}, src)

	cfg.Source = "ftp"
	_, err = NewSource(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestDirSource_Runs(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "run1", map[string]string{"model": "ridge"}, fullMetrics())

	runs, err := DirSource{Root: root}.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ridge", runs[0].Model)
}
