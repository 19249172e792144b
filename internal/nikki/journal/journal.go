// Package journal holds every user's ordered list of journal entries and
// persists it write-through: a mutation is visible only after the whole
// document has been written to the backend.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when an operation names a user with no journal.
	ErrNotFound = errors.New("journal: user not found")

	// ErrIndexOutOfRange is returned by Update when the index does not name
	// an existing entry.
	ErrIndexOutOfRange = errors.New("journal: entry index out of range")

	// ErrPersistence wraps backend write failures. The in-memory state is
	// left exactly as it was before the failed call.
	ErrPersistence = errors.New("journal: persistence failed")
)

// Backend reads and writes the whole journal document.
// Read returns (nil, nil) when nothing has been stored yet.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Store is the in-memory journal mapping backed by a Backend.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	journals map[string][]string
}

// Open loads all persisted journals from backend. An absent document yields
// an empty store; a malformed one is an error.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	data, err := backend.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("load journals: %w", err)
	}
	journals, err := Decode(data)
	if err != nil {
		return nil, err
	}

	slog.Info("journals loaded", "backend", fmt.Sprint(backend), "users", len(journals))
	return &Store{backend: backend, journals: journals}, nil
}

// EnsureUser creates an empty journal for id if none exists and persists it.
// It is a no-op for known users.
func (s *Store) EnsureUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.journals[id]; ok {
		return nil
	}
	return s.commitLocked(ctx, id, []string{})
}

// Append adds "<date(now)>: <text>" to the end of id's journal and returns
// the stored entry.
func (s *Store) Append(ctx context.Context, id, text string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.journals[id]
	if !ok {
		return "", fmt.Errorf("append for %s: %w", id, ErrNotFound)
	}

	entry := FormatEntry(now, text)
	next := make([]string, len(entries), len(entries)+1)
	copy(next, entries)
	next = append(next, entry)

	if err := s.commitLocked(ctx, id, next); err != nil {
		return "", err
	}
	return entry, nil
}

// Update replaces the entry at the 0-based index with "<date(now)>: <text>".
func (s *Store) Update(ctx context.Context, id string, index int, text string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.journals[id]
	if !ok {
		return "", fmt.Errorf("update for %s: %w", id, ErrNotFound)
	}
	if index < 0 || index >= len(entries) {
		return "", fmt.Errorf("update %s[%d] of %d: %w", id, index, len(entries), ErrIndexOutOfRange)
	}

	entry := FormatEntry(now, text)
	next := slices.Clone(entries)
	next[index] = entry

	if err := s.commitLocked(ctx, id, next); err != nil {
		return "", err
	}
	return entry, nil
}

// List returns a copy of id's entries in insertion order.
func (s *Store) List(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.journals[id]
	if !ok {
		return nil, fmt.Errorf("list for %s: %w", id, ErrNotFound)
	}
	return slices.Clone(entries), nil
}

// Users returns every known user id, sorted.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.journals))
}

// UserCount returns the number of known users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journals)
}

// commitLocked writes the document with id's journal replaced by entries,
// and swaps it into memory only once the write succeeded. Caller holds s.mu.
func (s *Store) commitLocked(ctx context.Context, id string, entries []string) error {
	next := maps.Clone(s.journals)
	next[id] = entries

	data, err := Encode(next)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.journals = next
	return nil
}
