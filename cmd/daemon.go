package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/httpapi"
	"github.com/opsgrid/diskwatch/metrics"
)

// runDaemon polls headless until SIGINT/SIGTERM, optionally serving the
// HTTP API alongside.
func runDaemon(eng *engine.Engine, store *history.Store, meter *metrics.Metrics, opts Options, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pidPath string
	if opts.DataDir != "" {
		pidPath = filepath.Join(opts.DataDir, "daemon.pid")
		if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0600); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer os.Remove(pidPath)
	}

	if opts.HTTPEnabled {
		api := httpapi.NewServer(eng, store, meter, log)
		go func() {
			if err := api.Serve(ctx, opts.HTTPAddr); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("http api stopped")
			}
		}()
	}

	log.Info().
		Int("pid", os.Getpid()).
		Dur("interval", opts.Interval).
		Str("datadir", opts.DataDir).
		Msg("daemon started")

	err := eng.Run(ctx, opts.Interval)
	if err == context.Canceled {
		log.Info().Msg("daemon shutting down")
		return nil
	}
	return err
}
