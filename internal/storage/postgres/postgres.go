// Package postgres keeps the transaction snapshot in a Postgres key-value
// table, for deployments where the server and the export worker do not
// share a filesystem.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository is the Postgres counterpart of storage.SQLiteRepository.
type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Persister = (*Repository)(nil)

// Open connects to databaseURL, runs migrations and returns a ready
// repository.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	// One snapshot row; a small pool is plenty
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations brings the schema at databaseURL up to date.
func RunMigrations(databaseURL string) error {
	migrateURL, err := MigrateURL(databaseURL)
	if err != nil {
		return err
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, migrateURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	_, err = storage.Up(m)
	return err
}

// MigrateURL rewrites a postgres:// connection string to the scheme the
// pgx migration driver registers.
func MigrateURL(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Get returns the raw value stored under key. ok is false when the key is
// absent.
func (r *Repository) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var s string
	err = r.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(s), true, nil
}

// Put stores value under key, replacing any previous value.
func (r *Repository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Load implements storage.Persister.
func (r *Repository) Load(ctx context.Context) ([]core.Transaction, error) {
	raw, ok, err := r.Get(ctx, storage.TransactionsKey)
	if err != nil || !ok {
		return nil, err
	}
	txs, err := storage.DecodeTransactions(raw)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Transactions loaded from Postgres", "count", len(txs))
	return txs, nil
}

// Save implements storage.Persister.
func (r *Repository) Save(ctx context.Context, txs []core.Transaction) error {
	raw, err := storage.EncodeTransactions(txs)
	if err != nil {
		return err
	}
	if err := r.Put(ctx, storage.TransactionsKey, raw); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	slog.DebugContext(ctx, "Transactions saved to Postgres", "count", len(txs), "bytes", len(raw))
	return nil
}
