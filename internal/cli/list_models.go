/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Helps debug the mlruns layout and model discovery.

REQUIREMENTS:
  User-specified:
  - List available models.

  Implementation-discovered:
  - Useful validation step before serving or exporting.

ARCHITECTURE INTEGRATION:
  - Calls: internal/ingest.NewSource, internal/aggregate.Models

ERROR HANDLING:
  - Returns error if the source cannot be read.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  mlboard list-models --mlruns ./mlruns

SELF-HEALING INSTRUCTIONS:
  - Empty output: check --mlruns and --experiment point at the run directories.

RELATED FILES:
  - internal/ingest/reader.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/mlboard/internal/aggregate"
	"github.com/daryltucker/mlboard/internal/ingest"
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models found in the tracked runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		src, err := ingest.NewSource(cfg)
		if err != nil {
			return err
		}
		records, err := src.Runs(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		models := aggregate.Models(records)
		if len(models) == 0 {
			fmt.Fprintln(out, "No models found.")
			return nil
		}
		for _, m := range models {
			n := len(aggregate.Filter(records, m))
			fmt.Fprintf(out, "- %s (%d runs)\n", m, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
}
