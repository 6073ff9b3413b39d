/*
PURPOSE:
  Watches an MLflow experiment directory and fires a callback when runs or
  their metric/param files change. Drives `export --watch`.

REQUIREMENTS:
  User-specified:
  - Keep the static snapshot current while training jobs write metrics.

  Implementation-discovered:
  - fsnotify is not recursive: the experiment dir, every run dir, and each
    run's metrics/ and params/ dirs are added individually.
  - The tracking tool writes many files per run in quick succession, so
    events are debounced into one callback.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export --watch)
  - Dependencies: github.com/fsnotify/fsnotify

ERROR HANDLING:
  - Add failures are logged; a missing run subdirectory is picked up when
    it appears.
  - Callback errors are logged and do not stop the loop.

IMPLEMENTATION RULES:
  - Run blocks until ctx is done; Close releases the fsnotify handle.

USAGE:
  w, err := watch.New(root, 500*time.Millisecond)
  defer w.Close()
  w.Run(ctx, func() error { return export() })

SELF-HEALING INSTRUCTIONS:
  - If events stop arriving on Linux, check fs.inotify.max_user_watches.

RELATED FILES:
  - internal/cli/export.go

MAINTENANCE:
  - None.
*/

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/daryltucker/mlboard/internal/ingest"
	"github.com/daryltucker/mlboard/internal/output"
)

// Watcher debounces filesystem events under an experiment directory.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New starts watching root and every run directory currently below it.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w := &Watcher{root: filepath.Clean(root), debounce: debounce, fsw: fsw}

	entries, err := os.ReadDir(root)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addRun(filepath.Join(root, e.Name()))
		}
	}
	return w, nil
}

// addRun watches a run directory and its metrics/params subdirectories.
func (w *Watcher) addRun(dir string) {
	for _, p := range []string{dir, filepath.Join(dir, ingest.MetricsDir), filepath.Join(dir, ingest.ParamsDir)} {
		if err := w.fsw.Add(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			output.Logger.Warn("Failed to watch directory", "path", p, "error", err)
		}
	}
}

// Run calls onChange once per burst of events until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func() error) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				w.track(ev.Name)
			}
			output.Logger.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			output.Logger.Warn("Watcher error", "error", err)

		case <-timer.C:
			if err := onChange(); err != nil {
				output.Logger.Error("Change handler failed", "error", err)
			}
		}
	}
}

// track adds watches for a newly created run directory, or for a metrics/
// or params/ directory created after its run.
func (w *Watcher) track(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	parent := filepath.Dir(path)
	switch {
	case parent == w.root:
		w.addRun(path)
	case filepath.Dir(parent) == w.root:
		if base := filepath.Base(path); base == ingest.MetricsDir || base == ingest.ParamsDir {
			if err := w.fsw.Add(path); err != nil {
				output.Logger.Warn("Failed to watch directory", "path", path, "error", err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
