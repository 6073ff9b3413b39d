/*
PURPOSE:
  Defines the 'serve' subcommand.
  Runs the dashboard and JSON API until interrupted.

REQUIREMENTS:
  User-specified:
  - Serve the dashboard and /api/metrics.

  Implementation-discovered:
  - Either read the mlruns tree per request or serve a static snapshot.
  - Shut down gracefully on SIGINT/SIGTERM.

ARCHITECTURE INTEGRATION:
  - Calls: internal/server.New, internal/ingest.NewSource
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the listener fails.

IMPLEMENTATION RULES:
  - Logic: Load Config -> Override -> Source -> Server.
  - errgroup ties the listener and the shutdown watcher together.

USAGE:
  mlboard serve --addr :8000

SELF-HEALING INSTRUCTIONS:
  - "address already in use": pick another --addr.

RELATED FILES:
  - internal/server/server.go

MAINTENANCE:
  - Update when adding server options.
*/

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/mlboard/internal/config"
	"github.com/daryltucker/mlboard/internal/ingest"
	"github.com/daryltucker/mlboard/internal/output"
	"github.com/daryltucker/mlboard/internal/server"
)

var (
	addrOverride     string
	sourceOverride   string
	snapshotOverride string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics dashboard and JSON API",
	Long: `Serves the HTML dashboard at / and a read-only JSON API:

  GET /api/metrics           all runs
  GET /api/metrics/{model}   runs of one model (case-insensitive)
  GET /api/models            distinct model names
  GET /health                liveness
  GET /metrics.json          the exported snapshot, if present

With --source mlruns (default) every request re-reads the tracking directory.
With --source snapshot the server reads the metrics.json written by 'export'.`,
	Example: `  # Serve the default experiment from ./mlruns
  mlboard serve

  # Serve a different tracking store on another port
  mlboard serve --mlruns ../Q3/mlruns --addr :9000

  # Serve a previously exported snapshot
  mlboard serve --source snapshot --snapshot public/metrics.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addrOverride != "" {
			cfg.Addr = addrOverride
		}
		if sourceOverride != "" {
			cfg.Source = sourceOverride
		}
		if snapshotOverride != "" {
			cfg.SnapshotPath = snapshotOverride
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	return serveListener(ctx, cfg, ln)
}

// serveListener serves on ln until ctx is done, then shuts down within
// cfg.ShutdownTimeout. ln is closed on return.
func serveListener(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	src, err := ingest.NewSource(cfg)
	if err != nil {
		ln.Close()
		return err
	}

	handler := server.New(src, server.Options{
		SnapshotPath: cfg.SnapshotPath,
		CORSOrigins:  cfg.CORSOrigins,
	})
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		output.Logger.Info("Serving dashboard", "addr", ln.Addr().String(), "source", cfg.Source)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		output.Logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addrOverride, "addr", "", "Listen address (default :8000)")
	serveCmd.Flags().StringVar(&sourceOverride, "source", "", "Data source: mlruns or snapshot")
	serveCmd.Flags().StringVar(&snapshotOverride, "snapshot", "", "Path to metrics.json (served at /metrics.json)")
}
