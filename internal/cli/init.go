// Package cli provides common CLI initialization utilities shared by the
// budget subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger initializes structured logging at the given level, writing to
// w. The logger is also installed as the process default.
func SetupLogger(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = log.ComponentCLI
	if w != nil {
		cfg.Output = w
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, applies a
// non-empty ledger path override and validates the result.
func LoadAndValidateConfig(ledgerPath string) (*config.Config, error) {
	cfg := config.Load()
	if ledgerPath != "" {
		cfg.LedgerPath = ledgerPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap runs the full startup sequence: env file, config, logger and
// backend. The caller owns the returned result and must call its Cleanup.
func Bootstrap(ctx context.Context, ledgerPath string, logOutput io.Writer) (*backend.Result, *config.Config, *log.Logger, error) {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig(ledgerPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := SetupLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, nil, nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	result, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start", log.FieldOperation, log.OpStartup, log.FieldError, err)
		return nil, nil, nil, err
	}
	return result, cfg, logger, nil
}

// ErrShutdown is returned by WaitForSignal when SIGINT or SIGTERM arrives.
var ErrShutdown = errors.New("shutdown signal received")

// WaitForSignal blocks until SIGINT or SIGTERM, returning ErrShutdown, or
// until ctx is done, returning nil. It is meant to run in an errgroup next to
// the work it stops.
func WaitForSignal(ctx context.Context, logger *log.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	return waitForSignal(ctx, logger, sigChan)
}

func waitForSignal(ctx context.Context, logger *log.Logger, sigChan <-chan os.Signal) error {
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())
		return ErrShutdown
	case <-ctx.Done():
		return nil
	}
}

// Exit prints err to stderr and terminates the process with status 1.
func Exit(err error) {
	fmt.Fprintf(os.Stderr, "budget: %v\n", err)
	os.Exit(1)
}
