// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack and cmd/fintrack-transfer.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/app"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/kvstore"
	"fintrack/internal/log"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. An unknown level falls back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the configured key-value store.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, bcfg.Type)
		os.Exit(1)
	}
	return res
}

// LoadState builds an App over store and loads the persisted snapshot into
// it. The persister is registered as the first commit hook.
// Exits the process when the store cannot be read.
func LoadState(ctx context.Context, logger *log.Logger, store kvstore.Store, opts ...app.Option) (*app.App, *kvstore.Persister) {
	persister := kvstore.NewPersister(store, logger)
	a := app.New(append([]app.Option{app.WithLogger(logger), app.WithHooks(persister.Hook)}, opts...)...)
	if err := a.Load(ctx, persister); err != nil {
		logger.Error("Failed to load persisted state", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}
	return a, persister
}

// InitPublisher connects the optional AMQP publisher. It returns nil when
// AMQP is disabled or unreachable; the service runs without it.
func InitPublisher(ctx context.Context, logger *log.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		return nil
	}
	client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, cfg.AMQPConnectRetries, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without publishing", log.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)
	return client
}

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
