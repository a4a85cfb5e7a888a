// Package postgres implements the keyvalue.Store port on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is a TTL key-value store over a single table. Expired rows are
// treated as absent on read and overwritten in place; there is no background
// sweeper (every operation is a bounded synchronous statement).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("kv_postgres: db is nil")
	}
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS cart_entries (
  cache_key  TEXT PRIMARY KEY,
  value      JSONB NOT NULL,
  expires_at TIMESTAMPTZ NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("kv_postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) check(key string) error {
	if s == nil || s.db == nil {
		return errors.New("kv_postgres: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("kv_postgres: key is empty")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(key); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `
SELECT value
FROM cart_entries
WHERE cache_key = $1 AND expires_at > now()
`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv_postgres: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.check(key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO cart_entries (cache_key, value, expires_at)
VALUES ($1, $2, now() + $3 * INTERVAL '1 second')
ON CONFLICT (cache_key)
DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
`, key, value, int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("kv_postgres: put %s: %w", key, err)
	}
	return nil
}

// Forget deletes the row. Deleting a missing row succeeds.
func (s *Store) Forget(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_entries WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("kv_postgres: forget %s: %w", key, err)
	}
	return nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := s.check(key); err != nil {
		return false, err
	}

	var ok bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (
  SELECT 1 FROM cart_entries WHERE cache_key = $1 AND expires_at > now()
)`, key).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("kv_postgres: has %s: %w", key, err)
	}
	return ok, nil
}
