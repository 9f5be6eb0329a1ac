// Package sqlite provides the SQLite-backed durable store for the cart.
//
// WAL mode is enabled on Open so a read of the cart never blocks an
// in-flight persist. The store is a single-key KV table: the cart always
// lives in one row, replaced whole on every write.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps the client buildable on any platform without a C
	// toolchain.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    -- RFC3339 TEXT, the SQLite idiom for timestamps.
    updated_at TEXT NOT NULL
);`

// Storage persists one value under one fixed key.
type Storage struct {
	db  *sql.DB
	key string
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path, key string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &Storage{db: db, key: key}, nil
}

// Load returns the persisted value, or ok=false when nothing has been
// written under the key yet.
func (s *Storage) Load(ctx context.Context) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: load %q: %w", s.key, err)
	}
	return []byte(value), true, nil
}

// Save overwrites the value under the key.
func (s *Storage) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO client_kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: save %q: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}
