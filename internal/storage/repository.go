package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository mirrors ledger transactions into an SQLite table so they
// can be inspected with SQL tools. The CSV ledger stays the source of truth;
// rows are keyed by their 1-based position in the ledger.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const upsertTransaction = `INSERT OR REPLACE INTO transactions (seq, date, amount, category, description)
VALUES (?, ?, ?, ?, ?)`

// Mirror stores tx as the seq-th transaction of the ledger, replacing any
// row already stored at that position.
func (r *SQLiteRepository) Mirror(ctx context.Context, seq int, tx core.Transaction) error {
	if _, err := r.db.ExecContext(ctx, upsertTransaction,
		seq, tx.Date(), core.FormatAmount(tx.Amount()), tx.Category(), tx.Description()); err != nil {
		return fmt.Errorf("mirror transaction %d: %w", seq, err)
	}

	slog.DebugContext(ctx, "Transaction mirrored to SQLite",
		"seq", seq,
		"amount", core.FormatAmount(tx.Amount()),
		"category", tx.Category())

	return nil
}

// ReplaceAll makes the table hold exactly txs, in one SQL transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txs []core.Transaction) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			sqlTx.Rollback()
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, upsertTransaction)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		if _, err = stmt.ExecContext(ctx,
			i+1, tx.Date(), core.FormatAmount(tx.Amount()), tx.Category(), tx.Description()); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i+1, err)
		}
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Ledger exported to SQLite", "count", len(txs))
	return nil
}

// List returns the mirrored transactions in ledger order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount, category, description FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var date, amount, category, description string
		if err := rows.Scan(&date, &amount, &category, &description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx, err := core.NewTransaction(date, amount, category, description)
		if err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Count returns the number of mirrored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
