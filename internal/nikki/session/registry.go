package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/nikki/internal/nikki/clock"
)

// entry is one user's live session. gen changes on every Set so that an
// expiry armed for an older session can recognise it has been superseded.
type entry struct {
	session Session
	gen     uuid.UUID
	expiry  clock.Timer
}

// Registry maps user IDs to at most one active Session. It is safe for
// concurrent use; expiry callbacks run on timer goroutines.
type Registry struct {
	mu      sync.Mutex
	clk     clock.Clock
	entries map[string]*entry
	closed  bool
}

// NewRegistry returns an empty Registry using the wall clock.
func NewRegistry() *Registry {
	return NewRegistryWithClock(clock.Real{})
}

// NewRegistryWithClock is like NewRegistry but injects a custom clock.
func NewRegistryWithClock(clk clock.Clock) *Registry {
	return &Registry{
		clk:     clk,
		entries: make(map[string]*entry),
	}
}

// Get returns id's session, or Idle{} when none is active.
func (r *Registry) Get(id string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.session
	}
	return Idle{}
}

// Set replaces id's session, cancelling any pending expiry. Setting Idle is
// the same as Clear.
func (r *Registry) Set(id string, s Session) {
	if s == nil || s.Kind() == KindIdle {
		r.Clear(id)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(id)
	r.entries[id] = &entry{session: s, gen: uuid.New()}
}

// Clear removes id's session, cancelling any pending expiry.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(id)
	delete(r.entries, id)
}

// ArmExpiry clears id's current session after d unless it is replaced or
// cleared first. It reports false when id has no session or the registry is
// closed. Re-arming replaces the previous deadline.
func (r *Registry) ArmExpiry(id string, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || r.closed {
		return false
	}
	if e.expiry != nil {
		e.expiry.Stop()
	}
	gen := e.gen
	e.expiry = r.clk.AfterFunc(d, func() { r.expire(id, gen) })
	return true
}

// expire clears id only if the session that armed the timer is still live.
func (r *Registry) expire(id string, gen uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.gen != gen {
		return
	}
	delete(r.entries, id)
	slog.Info("session expired", "user", id, "kind", e.session.Kind())
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close cancels every pending expiry. Sessions stay readable; no further
// expiries can be armed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for _, e := range r.entries {
		if e.expiry != nil {
			e.expiry.Stop()
			e.expiry = nil
		}
	}
}

func (r *Registry) stopLocked(id string) {
	if e, ok := r.entries[id]; ok && e.expiry != nil {
		e.expiry.Stop()
	}
}
