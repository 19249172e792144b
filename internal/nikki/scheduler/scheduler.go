// Package scheduler opens the daily check-in for every known user on a cron
// schedule.
//
// The run loop computes the next tick from the injected clock and sleeps on
// clock.After, so tests drive it with clock.Fake instead of wall-clock waits.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bdobrica/nikki/common/trace"
	"github.com/bdobrica/nikki/internal/nikki/clock"
	"github.com/bdobrica/nikki/internal/nikki/dispatch"
	"github.com/bdobrica/nikki/internal/nikki/observability"
)

// Roster lists the users that receive a check-in.
type Roster interface {
	Users() []string
}

// Opener arms a check-in session and returns the prompt to deliver.
type Opener interface {
	OpenCheckin(ctx context.Context, userID string) dispatch.Reply
}

// Sender delivers a text message to a user.
type Sender interface {
	SendText(ctx context.Context, userID, body string) error
}

// Scheduler fires check-ins on a Schedule. New creates an idle scheduler;
// Start launches the loop and Stop waits for it to exit.
type Scheduler struct {
	sched  *Schedule
	roster Roster
	opener Opener
	sender Sender
	clk    clock.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New compiles expr and returns an idle Scheduler. An empty expr selects
// DefaultSchedule. A nil clk uses the wall clock.
func New(expr string, roster Roster, opener Opener, sender Sender, clk clock.Clock) (*Scheduler, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	sched, err := Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		sched:  sched,
		roster: roster,
		opener: opener,
		sender: sender,
		clk:    clk,
	}, nil
}

// Start launches the tick loop. It returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler: already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	slog.Info("scheduler: started", "schedule", s.sched.String(), "next", s.sched.Next(s.clk.Now()))
	go s.run(ctx, s.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish. It is
// safe to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("scheduler: stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		now := s.clk.Now()
		next := s.sched.Next(now)
		if next.IsZero() {
			slog.Error("scheduler: could not compute next tick; stopping", "schedule", s.sched.String())
			return
		}

		delay := next.Sub(now)
		if delay < 0 {
			delay = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-s.clk.After(delay):
			s.Tick(ctx)
		}
	}
}

// Tick opens a check-in for every user in the roster and sends each prompt.
// A failed send is logged and does not stop the remaining users. It returns
// the number of prompts delivered.
func (s *Scheduler) Tick(ctx context.Context) int {
	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	logger := observability.WithTrace(ctx)

	users := s.roster.Users()
	sent := 0
	for i, userID := range users {
		if ctx.Err() != nil {
			logger.Warn("scheduler: tick interrupted", "remaining", len(users)-i)
			break
		}
		reply := s.opener.OpenCheckin(ctx, userID)
		if err := s.sender.SendText(ctx, userID, reply.Text); err != nil {
			logger.Warn("scheduler: check-in prompt not delivered", "user", userID, "err", err)
			continue
		}
		sent++
	}

	logger.Info("scheduler: daily check-in sent", "users", len(users), "delivered", sent)
	return sent
}

// Next reports when the following check-in will fire, or the zero time if
// the schedule can never match.
func (s *Scheduler) Next() time.Time {
	return s.sched.Next(s.clk.Now())
}
