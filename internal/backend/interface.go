package backend

import (
	"context"
	"time"

	"budget/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the ledger service and its cleanup function
type Result struct {
	Service *services.LedgerService
	Cleanup CleanupFunc

	// Skipped is the number of unreadable rows dropped while loading the ledger
	Skipped int
}

// Factory creates the ledger service based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	LedgerPath string

	// SQLite mirror, optional
	SQLiteDBPath string

	// AMQP publisher, optional
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	PublishTimeout time.Duration
}
