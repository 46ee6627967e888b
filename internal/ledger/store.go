// Package ledger keeps the list of transactions of one CSV file in memory
// and in sync with the file.
//
// The file is the source of truth across runs: it is read once by Open, then
// every Append adds exactly one row. Rows are never rewritten or removed.
// A Store is not safe for concurrent use, and two stores must not share a
// path.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"budget/internal/core"
	"budget/internal/log"
)

var (
	// ErrCorruptRecord marks a stored row that is not a valid transaction.
	// Such rows are skipped by Open and reported in LoadReport.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrPersistence marks a failure to read or write the durable store.
	ErrPersistence = errors.New("persistence error")
)

// Store owns the transactions of one ledger file.
type Store struct {
	path   string
	txs    []core.Transaction
	report LoadReport
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report skipped rows and appends.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// Open loads the ledger stored at path. A missing file is an empty ledger
// and is not created until the first Append.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("ledger file does not exist yet, starting empty", log.FieldOperation, log.OpLoad, log.FieldPath, path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, path, err)
	}
	defer f.Close()

	txs, report, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}
	s.txs = txs
	s.report = report

	if report.Skipped > 0 {
		s.logger.Warn("skipped corrupt ledger rows",
			log.FieldOperation, log.OpLoad,
			log.FieldPath, path,
			log.FieldLoaded, report.Loaded,
			log.FieldSkipped, report.Skipped,
			log.FieldRow, report.SkippedRows)
	} else {
		s.logger.Debug("ledger loaded", log.FieldOperation, log.OpLoad, log.FieldPath, path, log.FieldLoaded, report.Loaded)
	}
	return s, nil
}

// Append records tx at the end of the ledger, in memory and in the file.
// The header is written first when the file is missing or empty, and a
// missing line terminator at the end of the file is added. When the
// file cannot be written the in-memory ledger is left as it was and the
// returned error wraps ErrPersistence.
func (s *Store) Append(tx core.Transaction) error {
	n := len(s.txs)
	s.txs = append(s.txs, tx)

	if err := s.persist(tx); err != nil {
		s.txs = s.txs[:n]
		s.logger.Error("could not append transaction", log.FieldPath, s.path, log.FieldError, err)
		return fmt.Errorf("%w: append to %s: %w", ErrPersistence, s.path, err)
	}

	s.logger.Debug("transaction appended",
		log.FieldPath, s.path,
		log.FieldSeq, len(s.txs),
		log.FieldAmount, core.FormatAmount(tx.Amount()),
		log.FieldCategory, tx.Category())
	return nil
}

func (s *Store) persist(tx core.Transaction) (err error) {
	var size int64
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		size = info.Size()
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var buf bytes.Buffer
	if size > 0 {
		// A last line without its terminator would swallow the new row
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return fmt.Errorf("read last byte: %w", err)
		}
		if last[0] != '\n' {
			buf.WriteByte('\n')
		}
	}
	if err := appendRows(&buf, size == 0, tx); err != nil {
		return err
	}
	_, err = f.Write(buf.Bytes())
	return err
}

// Transactions returns a copy of the ledger in insertion order.
func (s *Store) Transactions() []core.Transaction {
	return slices.Clone(s.txs)
}

// Len returns the number of transactions.
func (s *Store) Len() int { return len(s.txs) }

// Path returns the file backing the ledger.
func (s *Store) Path() string { return s.path }

// LoadReport returns what Open found in the file.
func (s *Store) LoadReport() LoadReport { return s.report }

// Summary returns income, expenses and balance of the whole ledger.
func (s *Store) Summary() core.Summary {
	return core.Summarize(s.txs)
}

// ByCategory returns the total per category, in order of first appearance.
func (s *Store) ByCategory() []core.CategoryTotal {
	return core.GroupByCategory(s.txs)
}
