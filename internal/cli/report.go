/*
PURPOSE:
  Defines the 'report' subcommand.
  Prints the dashboard's cards and comparison table in the terminal.

REQUIREMENTS:
  User-specified:
  - Same summary and best-per-column emphasis as the web dashboard.

  Implementation-discovered:
  - Scripting wants the filtered runs as JSON or CSV on stdout.

ARCHITECTURE INTEGRATION:
  - Calls: internal/ingest.NewSource, internal/aggregate, internal/output

ERROR HANDLING:
  - Returns error on config, source, or unknown --format.

IMPLEMENTATION RULES:
  - Cards summarize every run; the table honours --model.

USAGE:
  mlboard report --model ridge

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/table.go

MAINTENANCE:
  - Update when adding output formats.
*/

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/daryltucker/mlboard/internal/aggregate"
	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/ingest"
	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

var (
	reportModel  string
	reportFormat string
	reportSource string
	reportSort   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a model comparison report",
	Example: `  # Summary cards and comparison table
  mlboard report

  # Only random_forest runs, as CSV
  mlboard report --model random_forest --format csv

  # Best test R² first
  mlboard report --sort test_r2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if reportSource != "" {
			cfg.Source = reportSource
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		src, err := ingest.NewSource(cfg)
		if err != nil {
			return err
		}
		records, err := src.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if reportSort != "" {
			m, err := model.ParseMetric(reportSort)
			if err != nil {
				return err
			}
			records = aggregate.SortBy(records, m)
		}
		return writeReport(cmd.OutOrStdout(), records, reportModel, reportFormat)
	},
}

func writeReport(w io.Writer, records []model.RunRecord, selected, format string) error {
	filtered := aggregate.Filter(records, selected)

	switch format {
	case "table", "":
		fmt.Fprintln(w, output.RenderSummary(aggregate.Summarize(records)))
		fmt.Fprintln(w)
		fmt.Fprintln(w, output.RenderTable(filtered))
		return nil
	case "json":
		return output.EncodeJSON(w, filtered)
	case "csv":
		cw, err := output.NewCSVStream(w)
		if err != nil {
			return err
		}
		if err := cw.WriteAll(filtered); err != nil {
			return err
		}
		return cw.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportModel, "model", "m", aggregate.AllModels, "Show only runs of this model (exact match)")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "Output format: table, json, csv")
	reportCmd.Flags().StringVar(&reportSort, "sort", "", "Order runs best-first by a metric, e.g. test_r2")
	reportCmd.Flags().StringVar(&reportSource, "source", "", fmt.Sprintf("Data source: %s or %s", config.SourceMLRuns, config.SourceSnapshot))
}
