package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRoom is returned by GetUserRoom when no room is known for a user.
var ErrNoRoom = errors.New("store: no room recorded for user")

// SetUserRoom records the room a user talks to the bot in, replacing any
// previous one.
func (s *Store) SetUserRoom(ctx context.Context, userID, roomID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_rooms (user_id, room_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			room_id    = excluded.room_id,
			updated_at = excluded.updated_at
	`, userID, roomID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set room for %s: %w", userID, err)
	}
	return nil
}

// GetUserRoom returns the recorded room for userID or ErrNoRoom.
func (s *Store) GetUserRoom(ctx context.Context, userID string) (string, error) {
	var roomID string
	err := s.db.QueryRowContext(ctx, `SELECT room_id FROM user_rooms WHERE user_id = ?`, userID).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRoom
	}
	if err != nil {
		return "", fmt.Errorf("get room for %s: %w", userID, err)
	}
	return roomID, nil
}
