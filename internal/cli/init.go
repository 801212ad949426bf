// Package cli provides common CLI initialization utilities shared by the
// revdash commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revdash/internal/config"
	"revdash/internal/log"
)

// LoadAndValidateConfig loads configuration from .env and the environment
// and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg, writes to out and sets
// it as the process default.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := log.New(log.Config{
		Level:  level,
		Format: cfg.LogFormat,
		Output: out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Shutdown runs fn with a fresh context bounded by timeout, so cleanup still
// gets its grace period after the parent context has been cancelled.
func Shutdown(logger *log.Logger, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", log.FieldDuration, time.Since(start).Milliseconds())
	} else {
		logger.Info("Shutdown complete", log.FieldDuration, time.Since(start).Milliseconds())
	}
	return err
}
