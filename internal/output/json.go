/*
PURPOSE:
  Writes run records as the metrics.json snapshot consumed by the dashboard,
  and as JSON for the report command.

REQUIREMENTS:
  User-specified:
  - The static snapshot is a single JSON array, indented.

  Implementation-discovered:
  - The dashboard may read the snapshot while export rewrites it, so the file
    is replaced atomically (temp file + rename).
  - An empty run list must encode as [] not null.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export, report), internal/watch (via cli)
  - Consumes: internal/model.RunRecord

ERROR HANDLING:
  - Returns error on directory creation, write, or rename failure.
  - Removes the temp file on failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder with 2-space indent.

USAGE:
  err := output.WriteSnapshot("public/metrics.json", records)

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go
  - internal/ingest/source.go (SnapshotSource reads this file)

MAINTENANCE:
  - Keep field names stable; the snapshot is a wire format.
*/

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/daryltucker/mlboard/internal/model"
)

// EncodeJSON writes records as an indented JSON array.
func EncodeJSON(w io.Writer, records []model.RunRecord) error {
	if records == nil {
		records = []model.RunRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteSnapshot atomically replaces path with the JSON encoding of records.
func WriteSnapshot(path string, records []model.RunRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".metrics-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := EncodeJSON(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}

	Logger.Info("Wrote snapshot", "path", path, "runs", len(records))
	return nil
}
