/*
PURPOSE:
  Defines the root Cobra command for the mlboard CLI.
  Handles global flags, config loading, and logger setup.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an ExecuteContext() function for main.go.
  - Every subcommand needs the same Load -> Override -> Validate sequence.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/mlboard/main.go
  - Calls: Child commands (serve, export, report, list-models)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init() and loadConfig().

RELATED FILES:
  - cmd/mlboard/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	mlrunsOverride     string
	experimentOverride string
	logLevelOverride   string
	logFormatOverride  string

	rootCmd = &cobra.Command{
		Use:   "mlboard",
		Short: "Dashboard and API for MLflow experiment metrics",
		Long: `mlboard reads the run directories an MLflow tracking store writes to disk
and presents train/test RMSE, MAE and R² per model as a web dashboard,
a JSON API, a static metrics.json snapshot, or a terminal report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// ExecuteContext executes the root command with ctx available to subcommands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./mlboard.yaml)")
	pf.StringVar(&mlrunsOverride, "mlruns", "", "Path to the mlruns tracking directory")
	pf.StringVar(&experimentOverride, "experiment", "", "Experiment id under the mlruns directory")
	pf.StringVar(&logLevelOverride, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormatOverride, "log-format", "", "Log format: text or json")
}

// loadConfig loads the config file, applies global flag overrides, validates,
// and configures the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if mlrunsOverride != "" {
		cfg.MLRunsDir = mlrunsOverride
	}
	if experimentOverride != "" {
		cfg.ExperimentID = experimentOverride
	}
	if logLevelOverride != "" {
		cfg.LogLevel = logLevelOverride
	}
	if logFormatOverride != "" {
		cfg.LogFormat = logFormatOverride
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := output.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}
