package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadDocument returns the stored value for key, or (nil, nil) when no row
// exists yet.
func (s *Store) LoadDocument(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document %q: %w", key, err)
	}
	return []byte(value), nil
}

// SaveDocument replaces the whole value stored under key.
func (s *Store) SaveDocument(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

// DocumentBackend adapts one document row to the journal store's
// whole-document Read/Write contract.
type DocumentBackend struct {
	store *Store
	key   string
}

// NewDocumentBackend returns a backend bound to the row named key.
func NewDocumentBackend(s *Store, key string) *DocumentBackend {
	return &DocumentBackend{store: s, key: key}
}

// Read returns the document bytes, or nil when the row does not exist.
func (b *DocumentBackend) Read(ctx context.Context) ([]byte, error) {
	return b.store.LoadDocument(ctx, b.key)
}

// Write overwrites the document row.
func (b *DocumentBackend) Write(ctx context.Context, data []byte) error {
	return b.store.SaveDocument(ctx, b.key, data)
}

// String names the backend in log lines.
func (b *DocumentBackend) String() string {
	return "sqlite:" + b.key
}
