// Package services orchestrates the ledger with its optional side channels:
// the SQLite mirror and the event publisher.
package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/log"
)

// Ledger is the durable record of transactions.
type Ledger interface {
	Append(tx core.Transaction) error
	Transactions() []core.Transaction
	Len() int
	Summary() core.Summary
	ByCategory() []core.CategoryTotal
}

// Mirror keeps a secondary copy of each appended transaction.
type Mirror interface {
	Mirror(ctx context.Context, seq int, tx core.Transaction) error
	Close() error
}

// Publisher announces appended transactions.
type Publisher interface {
	Publish(ctx context.Context, seq int, tx core.Transaction) error
	Close() error
}

// Exporter receives a full copy of the ledger.
type Exporter interface {
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}

// LedgerService records transactions in the ledger and fans them out to the
// mirror and the publisher. Only the ledger write decides success.
type LedgerService struct {
	ledger    Ledger
	mirror    Mirror
	publisher Publisher
	logger    *log.Logger
}

type Option func(*LedgerService)

func WithMirror(m Mirror) Option {
	return func(s *LedgerService) { s.mirror = m }
}

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentService)
		}
	}
}

func NewLedgerService(ledger Ledger, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: ledger,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends tx to the ledger. Mirror and publish failures are logged and
// never undo a successful append.
func (s *LedgerService) Record(ctx context.Context, tx core.Transaction) error {
	if err := s.ledger.Append(tx); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	seq := s.ledger.Len()

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, seq, tx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to mirror transaction",
				log.FieldOperation, log.OpMirror,
				log.FieldSeq, seq,
				log.FieldError, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, seq, tx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish transaction",
				log.FieldOperation, log.OpPublish,
				log.FieldSeq, seq,
				log.FieldError, err)
		}
	}

	s.logger.DebugContext(ctx, "Recorded transaction",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithTransaction(tx.Date(), core.FormatAmount(tx.Amount()), tx.Category(), tx.Description()).
			ToSlice()...)

	return nil
}

func (s *LedgerService) Summary() core.Summary { return s.ledger.Summary() }

func (s *LedgerService) ByCategory() []core.CategoryTotal { return s.ledger.ByCategory() }

func (s *LedgerService) Transactions() []core.Transaction { return s.ledger.Transactions() }

// Export replaces the exporter's content with every transaction in the ledger
// and returns how many were copied.
func (s *LedgerService) Export(ctx context.Context, dst Exporter) (int, error) {
	txs := s.ledger.Transactions()
	if err := dst.ReplaceAll(ctx, txs); err != nil {
		return 0, fmt.Errorf("export ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Exported ledger",
		log.FieldOperation, log.OpExport,
		log.FieldLoaded, len(txs))
	return len(txs), nil
}

// Close closes the mirror and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mirror: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	return errors.Join(errs...)
}
