/*
PURPOSE:
  Abstracts where run records come from: the live mlruns tree or an
  exported metrics.json snapshot.

REQUIREMENTS:
  User-specified:
  - The dashboard can render either live runs or a static snapshot.

  Implementation-discovered:
  - A missing snapshot must be distinguishable from a corrupt one.

ARCHITECTURE INTEGRATION:
  - Used by: internal/server, internal/cli (serve, report, list-models)
  - Calls: ReadRuns, internal/config

ERROR HANDLING:
  - ErrSnapshotNotFound when the snapshot file does not exist.
  - Decode failures are wrapped with the path.

USAGE:
  src, err := ingest.NewSource(cfg)
  records, err := src.Runs(ctx)

RELATED FILES:
  - internal/ingest/reader.go
  - internal/output/json.go
*/

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/model"
)

// ErrSnapshotNotFound is returned when a snapshot source has no file to read.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Source yields the current list of run records.
type Source interface {
	Runs(ctx context.Context) ([]model.RunRecord, error)
}

// DirSource reads the experiment directory on every call.
type DirSource struct {
	Root    string
	Options Options
}

func (s DirSource) Runs(ctx context.Context) ([]model.RunRecord, error) {
	return ReadRuns(ctx, s.Root, s.Options)
}

// SnapshotSource decodes an exported metrics.json array.
type SnapshotSource struct {
	Path string
}

func (s SnapshotSource) Runs(ctx context.Context) ([]model.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.Path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.Path, err)
	}

	records := []model.RunRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.Path, err)
	}
	return records, nil
}

// NewSource builds the Source selected by cfg.Source.
func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.Source {
	case config.SourceMLRuns:
		return DirSource{Root: cfg.ExperimentDir(), Options: Options{SkipEntries: cfg.SkipEntries}}, nil
	case config.SourceSnapshot:
		return SnapshotSource{Path: cfg.SnapshotPath}, nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}
}
