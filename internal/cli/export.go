/*
PURPOSE:
  Defines the 'export' subcommand.
  Writes the metrics.json snapshot (and optionally CSV) from the mlruns tree.

REQUIREMENTS:
  User-specified:
  - The client-side dashboard renders a static snapshot file.

  Implementation-discovered:
  - --watch keeps the snapshot current while training jobs run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/ingest.ReadRuns, internal/output.WriteSnapshot,
    internal/watch
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the snapshot cannot be written.
  - In --watch mode, failed re-exports are logged and the watch continues.

IMPLEMENTATION RULES:
  - Logic: Load Config -> Override -> ReadRuns -> Write.

USAGE:
  mlboard export -o public/metrics.json --csv runs.csv

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/output/json.go
  - internal/watch/watcher.go

MAINTENANCE:
  - Update when adding new export formats.
*/

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/ingest"
	"github.com/daryltucker/mlboard/internal/output"
	"github.com/daryltucker/mlboard/internal/watch"
)

var (
	exportOutput string
	exportCSV    string
	exportWatch  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the metrics.json snapshot from the mlruns directory",
	Example: `  # Write ./metrics.json from ./mlruns/0
  mlboard export

  # Write into a frontend's public directory, plus a CSV copy
  mlboard export -o ../frontend/public/metrics.json --csv runs.csv

  # Re-export whenever a run changes
  mlboard export --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if exportOutput != "" {
			cfg.SnapshotPath = exportOutput
		}
		if exportCSV != "" {
			cfg.CSVPath = exportCSV
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := export(ctx, cfg); err != nil {
			return err
		}
		if !exportWatch {
			return nil
		}
		return watchAndExport(ctx, cfg)
	},
}

// export reads the experiment once and writes every configured output.
func export(ctx context.Context, cfg *config.Config) error {
	root := cfg.ExperimentDir()
	output.Logger.Info("Reading metrics", "path", root)

	records, err := ingest.ReadRuns(ctx, root, ingest.Options{SkipEntries: cfg.SkipEntries})
	if err != nil {
		return err
	}
	for _, r := range records {
		output.Logger.Info("Processed run", "model", r.Model, "run_id", r.ShortRunID())
	}

	if err := output.WriteSnapshot(cfg.SnapshotPath, records); err != nil {
		return err
	}

	if cfg.CSVPath == "" {
		return nil
	}
	w, err := output.NewCSVWriter(cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to init CSV writer at %s: %w", cfg.CSVPath, err)
	}
	if err := w.WriteAll(records); err != nil {
		w.Close()
		return fmt.Errorf("failed to write CSV %s: %w", cfg.CSVPath, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	output.Logger.Info("Wrote CSV", "path", cfg.CSVPath, "runs", len(records))
	return nil
}

func watchAndExport(ctx context.Context, cfg *config.Config) error {
	w, err := watch.New(cfg.ExperimentDir(), cfg.WatchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	output.Logger.Info("Watching for changes", "path", cfg.ExperimentDir(), "debounce", cfg.WatchDebounce)
	return w.Run(ctx, func() error {
		return export(ctx, cfg)
	})
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Snapshot path (default metrics.json)")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "Also write runs as CSV to this path")
	exportCmd.Flags().BoolVarP(&exportWatch, "watch", "w", false, "Re-export when the mlruns directory changes")
}
