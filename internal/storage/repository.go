package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a small key-value store on SQLite. The transaction
// collection is kept as one JSON value under TransactionsKey.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Persister = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get returns the raw value stored under key. ok is false when the key is
// absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var s string
	err = r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(s), true, nil
}

// Put stores value under key, replacing any previous value.
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Load implements Persister.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Transaction, error) {
	raw, ok, err := r.Get(ctx, TransactionsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	txs, err := DecodeTransactions(raw)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Transactions loaded from SQLite", "count", len(txs))
	return txs, nil
}

// Save implements Persister.
func (r *SQLiteRepository) Save(ctx context.Context, txs []core.Transaction) error {
	raw, err := EncodeTransactions(txs)
	if err != nil {
		return err
	}
	if err := r.Put(ctx, TransactionsKey, raw); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	slog.DebugContext(ctx, "Transactions saved to SQLite", "count", len(txs), "bytes", len(raw))
	return nil
}
