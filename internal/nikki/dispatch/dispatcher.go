// Package dispatch is the per-user journaling state machine. Every inbound
// event is turned into a Decision by the pure Decide function; the
// Dispatcher then persists the journal mutation and, only if that
// succeeded, moves the session on.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bdobrica/nikki/internal/nikki/clock"
	"github.com/bdobrica/nikki/internal/nikki/journal"
	"github.com/bdobrica/nikki/internal/nikki/observability"
	"github.com/bdobrica/nikki/internal/nikki/session"
)

const (
	DefaultCheckinExpiry = time.Hour
	DefaultPreviewLength = 40
)

// Journal is the subset of *journal.Store the dispatcher mutates.
type Journal interface {
	EnsureUser(ctx context.Context, id string) error
	Append(ctx context.Context, id, text string, now time.Time) (string, error)
	Update(ctx context.Context, id string, index int, text string, now time.Time) (string, error)
	List(id string) ([]string, error)
}

// Config tunes a Dispatcher. Zero values select the defaults.
type Config struct {
	CheckinExpiry time.Duration
	PreviewLength int
	Messages      Messages
	Clock         clock.Clock
}

// Dispatcher serializes events per user and applies Decide's outcome to the
// journal and the session registry.
type Dispatcher struct {
	journal    Journal
	sessions   *session.Registry
	clk        clock.Clock
	expiry     time.Duration
	previewLen int
	msgs       Messages

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires a Dispatcher to its journal and session registry.
func New(j Journal, sessions *session.Registry, cfg Config) *Dispatcher {
	if cfg.CheckinExpiry <= 0 {
		cfg.CheckinExpiry = DefaultCheckinExpiry
	}
	if cfg.PreviewLength == 0 {
		cfg.PreviewLength = DefaultPreviewLength
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Dispatcher{
		journal:    j,
		sessions:   sessions,
		clk:        cfg.Clock,
		expiry:     cfg.CheckinExpiry,
		previewLen: cfg.PreviewLength,
		msgs:       cfg.Messages.WithDefaults(),
		locks:      make(map[string]*sync.Mutex),
	}
}

// Messages returns the effective reply texts.
func (d *Dispatcher) Messages() Messages {
	return d.msgs
}

// Handle runs one event for userID. The returned Reply is always safe to
// deliver; a non-nil error means a journal write failed and the session was
// left unchanged so the user can retry.
func (d *Dispatcher) Handle(ctx context.Context, userID string, ev Event) (Reply, error) {
	unlock := d.lock(userID)
	defer unlock()

	logger := observability.WithTrace(ctx).With("user", userID, "event", ev.Kind.String())

	cur := d.sessions.Get(userID)
	entries, err := d.journal.List(userID)
	if err != nil && !errors.Is(err, journal.ErrNotFound) {
		logger.Error("dispatch: list journal", "err", err)
		return Reply{Text: d.msgs.SaveFailed}, err
	}

	now := d.clk.Now()
	dec := Decide(Input{
		Session:  cur,
		Event:    ev,
		Entries:  entries,
		Deadline: now.Add(d.expiry),
	}, d.msgs, d.previewLen)

	if err := d.apply(ctx, userID, dec.Mutation, now); err != nil {
		if errors.Is(err, journal.ErrIndexOutOfRange) {
			logger.Warn("dispatch: edit target vanished; back to selection", "err", err)
			d.sessions.Set(userID, session.AwaitingEditSelection{})
			return Reply{Text: d.msgs.InvalidEntry}, err
		}
		logger.Error("dispatch: journal write failed; session unchanged",
			"session", cur.Kind(), "err", err)
		return Reply{Text: d.msgs.SaveFailed}, err
	}

	next := cur
	if dec.Next != nil {
		next = dec.Next
		d.sessions.Set(userID, next)
		if dec.ArmExpiry {
			d.sessions.ArmExpiry(userID, d.expiry)
		}
	}

	logger.Info("dispatch: event handled",
		"from", cur.Kind(), "to", next.Kind(),
		"mutation", dec.Mutation.Kind, "body_len", len(ev.Body))
	return dec.Reply, nil
}

// AwaitingText reports whether the user's next message is journal text: a
// check-in answer or the replacement for an entry being edited.
func (d *Dispatcher) AwaitingText(userID string) bool {
	switch d.sessions.Get(userID).(type) {
	case session.AwaitingCheckin, session.AwaitingEditText:
		return true
	}
	return false
}

// OpenCheckin arms an AwaitingCheckin session for a user that already has a
// journal and returns the prompt to send. The scheduler uses it for the
// daily check-in.
func (d *Dispatcher) OpenCheckin(ctx context.Context, userID string) Reply {
	unlock := d.lock(userID)
	defer unlock()

	d.sessions.Set(userID, session.AwaitingCheckin{Deadline: d.clk.Now().Add(d.expiry)})
	d.sessions.ArmExpiry(userID, d.expiry)

	observability.WithTrace(ctx).Info("dispatch: check-in opened", "user", userID, "expiry", d.expiry)
	return Reply{Text: d.msgs.CheckinPrompt}
}

func (d *Dispatcher) apply(ctx context.Context, userID string, m Mutation, now time.Time) error {
	var err error
	switch m.Kind {
	case MutateEnsureUser:
		err = d.journal.EnsureUser(ctx, userID)
	case MutateAppend:
		_, err = d.journal.Append(ctx, userID, m.Text, now)
	case MutateUpdate:
		_, err = d.journal.Update(ctx, userID, m.Index, m.Text, now)
	}
	return err
}

// lock serializes events for one user; different users never contend.
func (d *Dispatcher) lock(userID string) func() {
	d.mu.Lock()
	l, ok := d.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[userID] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}
