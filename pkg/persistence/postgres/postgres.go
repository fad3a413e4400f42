// Package postgres provides a PostgreSQL-backed implementation of the
// persistence store using a single key/value table with a JSONB payload.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/lib/pq" // postgres driver

	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS autoflow_records (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store implements persistence.Store on top of a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool against the database URL and ensures
// the records table exists.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &Store{db: db}, nil
}

func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO autoflow_records (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		key, data)
	if err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string, out any) error {
	var data []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM autoflow_records WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.NewStoreError("get", key, persistence.ErrKeyNotFound)
		}

		return persistence.NewStoreError("get", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return persistence.NewStoreError("get", key, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM autoflow_records WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, persistence.NewStoreError("list", prefix, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, persistence.NewStoreError("list", prefix, err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("list", prefix, err)
	}

	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM autoflow_records WHERE key = $1`, key); err != nil {
		return persistence.NewStoreError("delete", key, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
