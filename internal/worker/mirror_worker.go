// Package worker keeps a SQLite mirror in step with the transactions
// announced on the message queue.
package worker

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// Mirror stores a transaction under its ledger sequence number.
type Mirror interface {
	Mirror(ctx context.Context, seq int, tx core.Transaction) error
}

// MirrorWorker applies transaction recorded messages to a mirror. Applying
// the same message twice leaves the mirror unchanged.
type MirrorWorker struct {
	mirror Mirror
	logger *log.Logger
}

func NewMirrorWorker(mirror Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes a single transaction recorded message from AMQP
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	if msg.Seq < 1 {
		return fmt.Errorf("invalid sequence number %d", msg.Seq)
	}

	tx, err := msg.Transaction()
	if err != nil {
		return fmt.Errorf("decode transaction %d: %w", msg.Seq, err)
	}

	if err := w.mirror.Mirror(ctx, msg.Seq, tx); err != nil {
		return fmt.Errorf("mirror transaction %d: %w", msg.Seq, err)
	}

	w.logger.InfoContext(ctx, "Mirrored transaction",
		log.FieldOperation, log.OpMirror,
		log.FieldSeq, msg.Seq,
		log.FieldCategory, tx.Category())
	return nil
}
