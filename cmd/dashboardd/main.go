// Command dashboardd serves the fitness dashboard's data API. It
// aggregates activity and wellness history from intervals.icu (with
// optional Strava and Concept2 backfill), reconciles it into one
// canonical corpus behind a freshness-windowed cache, and exposes the
// corpus and its derived views as JSON.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/api"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/bootstrap"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/infrastructure/sentry"
)

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	logger := bootstrap.NewLogger("dashboardd")

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := sentry.Init(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: os.Getenv("ENVIRONMENT"),
	}, logger); err != nil {
		logger.Error("sentry init failed", "error", err)
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error("service init failed", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.New(svc.Syncer, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
