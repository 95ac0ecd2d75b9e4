package shortlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresKV stores values in a two-column key/value table. Update locks the row
// with SELECT ... FOR UPDATE inside a transaction.
type PostgresKV struct {
	db    *sql.DB
	table string
}

func NewPostgresKV(db *sql.DB, table string) *PostgresKV {
	if table == "" {
		table = "kv_store"
	}
	return &PostgresKV{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the table when it does not exist.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", p.table, err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, p.table)

	var value []byte
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return value, nil
}

func (p *PostgresKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrReadFailed, err)
	}
	defer tx.Rollback()

	var current []byte
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 FOR UPDATE`, p.table)
	err = tx.QueryRowContext(ctx, query, key).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, p.table)
	if _, err := tx.ExecContext(ctx, upsert, key, string(next)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWriteFailed, err)
	}
	return nil
}

func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
