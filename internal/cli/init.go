// Package cli holds the start-up steps shared by cmd/lifeboard and
// cmd/lifeboard-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lifeboard/internal/config"
	"lifeboard/internal/log"
	"lifeboard/internal/storage"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default. An unparsable level falls back to info.
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
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the configuration from the environment and
// validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// OpenSQLite opens the SQLite repository at dbPath, migrating it as needed.
func OpenSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	return repo, nil
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx is done, then runs
// shutdown with a context bounded by timeout.
func WaitForShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if shutdown == nil {
		return nil
	}
	if err := shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
