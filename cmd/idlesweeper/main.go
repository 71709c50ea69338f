// Command idlesweeper runs the scheduled inactivity sweep against the
// durable store and serves Prometheus metrics while it waits.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matchday/engine/internal/adapters/storage/gormstore"
	"github.com/matchday/engine/internal/adapters/sweep"
	"github.com/matchday/engine/internal/config"
	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/pkg/logger"
	"github.com/matchday/engine/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := gormstore.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}

	sweeper := inactivity.NewSweeper(
		inactivity.New(cfg.Inactivity()),
		store,
		inactivity.WithSweeperLogger(log.Named("sweeper")),
	)
	sched := sweep.New(sweeper, cfg.SweepSpec, sweep.WithLogger(log.Named("sweep")))
	if err := sched.Start(ctx); err != nil {
		log.Error(ctx, "failed to start sweep schedule", logger.Error(err))
		return
	}
	defer sched.Stop()

	// Expose Prometheus metrics while the schedule runs.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "metrics server shutdown failed", logger.Error(err))
	}
}
