package backend

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// Create opens the ledger and the optional mirror and publisher. A ledger or
// mirror failure aborts; an unreachable broker only disables publishing.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	store, err := ledger.Open(config.LedgerPath, ledger.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	opts := []services.Option{services.WithLogger(f.logger)}

	if config.SQLiteDBPath != "" {
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite mirror: %w", err)
		}
		opts = append(opts, services.WithMirror(sqliteRepo))
		f.logger.InfoContext(ctx, "Initialized SQLite mirror", log.FieldDBPath, config.SQLiteDBPath)
	}

	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.PublishTimeout)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				log.FieldExchange, config.AMQPExchange,
				log.FieldQueue, config.AMQPQueue)
		}
	}

	service := services.NewLedgerService(store, opts...)

	report := store.LoadReport()
	f.logger.InfoContext(ctx, "Opened ledger",
		log.FieldPath, store.Path(),
		log.FieldLoaded, report.Loaded,
		log.FieldSkipped, report.Skipped)

	return &Result{
		Service: service,
		Cleanup: service.Close,
		Skipped: report.Skipped,
	}, nil
}
