package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SyncState returns the stored value for (account, key), or "" when nothing
// has been saved yet.
func (s *Store) SyncState(ctx context.Context, account, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM matrix_sync_state WHERE user_id = ? AND key = ?`,
		account, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("load sync %s for %s: %w", key, account, err)
	}
	return value, nil
}

// SetSyncState upserts the value for (account, key).
func (s *Store) SetSyncState(ctx context.Context, account, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matrix_sync_state (user_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`, account, key, value)
	if err != nil {
		return fmt.Errorf("save sync %s for %s: %w", key, account, err)
	}
	return nil
}
