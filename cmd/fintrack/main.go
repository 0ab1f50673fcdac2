package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	a, _ := cli.LoadState(ctx, logger, store.Store)
	state := a.State()
	logger.Info("Loaded persisted state",
		log.FieldBackend, cfg.DataBackend,
		"transactions", len(state.Transactions),
		"budgets", len(state.Budgets))

	if publisher := cli.InitPublisher(ctx, logger, cfg); publisher != nil {
		defer publisher.Close()
		a.OnCommit(publisher.Hook)
	}

	hub := apphttp.NewEventHub(logger)
	a.OnCommit(hub.Hook)

	limits := ratelimit.DefaultConfig()
	limits.RequestsPerMinute = cfg.RateLimitPerMinute

	srv := apphttp.NewServer(cfg.Addr(), a,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(store.Ready),
		apphttp.WithEventHub(hub),
		apphttp.WithRateLimit(limits),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
