// Package session tracks the single conversational state each user is in
// and expires unanswered check-ins.
package session

import (
	"fmt"
	"time"
)

// Kind names a Session variant for logs and status output.
type Kind string

const (
	KindIdle                  Kind = "idle"
	KindAwaitingCheckin       Kind = "awaiting_checkin"
	KindAwaitingEditSelection Kind = "awaiting_edit_selection"
	KindAwaitingEditText      Kind = "awaiting_edit_text"
)

// Session is one of Idle, AwaitingCheckin, AwaitingEditSelection or
// AwaitingEditText. The set is closed: only this package can add variants.
type Session interface {
	Kind() Kind
	sealed()
}

// Idle is the default state: free text only earns a guidance reply.
type Idle struct{}

// AwaitingCheckin consumes the user's next text as a new entry. Deadline is
// informational; expiry itself is armed on the Registry.
type AwaitingCheckin struct {
	Deadline time.Time
}

// AwaitingEditSelection expects a 1-based entry number.
type AwaitingEditSelection struct{}

// AwaitingEditText replaces the entry at the 0-based Index with the next text.
type AwaitingEditText struct {
	Index int
}

func (Idle) Kind() Kind                  { return KindIdle }
func (AwaitingCheckin) Kind() Kind       { return KindAwaitingCheckin }
func (AwaitingEditSelection) Kind() Kind { return KindAwaitingEditSelection }
func (AwaitingEditText) Kind() Kind      { return KindAwaitingEditText }

func (Idle) sealed()                  {}
func (AwaitingCheckin) sealed()       {}
func (AwaitingEditSelection) sealed() {}
func (AwaitingEditText) sealed()      {}

func (s AwaitingEditText) String() string {
	return fmt.Sprintf("%s(%d)", KindAwaitingEditText, s.Index)
}

// IsEditing reports whether s belongs to the edit flow.
func IsEditing(s Session) bool {
	switch s.(type) {
	case AwaitingEditSelection, AwaitingEditText:
		return true
	}
	return false
}
