// Package app wires nikki together: storage, the journaling state machine,
// the Matrix transport, the daily scheduler and the optional health server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/nikki/common/trace"
	"github.com/bdobrica/nikki/internal/nikki/commands"
	"github.com/bdobrica/nikki/internal/nikki/config"
	"github.com/bdobrica/nikki/internal/nikki/dispatch"
	"github.com/bdobrica/nikki/internal/nikki/journal"
	"github.com/bdobrica/nikki/internal/nikki/matrix"
	"github.com/bdobrica/nikki/internal/nikki/observability"
	"github.com/bdobrica/nikki/internal/nikki/scheduler"
	"github.com/bdobrica/nikki/internal/nikki/session"
	"github.com/bdobrica/nikki/internal/nikki/store"
)

// journalDocumentKey is the documents row holding every journal.
const journalDocumentKey = "journals"

// transport is the part of *matrix.Client the app drives.
type transport interface {
	Start(ctx context.Context, handler matrix.MessageHandler) error
	Stop()
	SendRoomText(ctx context.Context, roomID, body string) error
	DeleteMessage(ctx context.Context, roomID, eventID string) error
}

// App is the running bot.
type App struct {
	store        *store.Store
	sessions     *session.Registry
	handlers     *commands.Handlers
	matrix       transport
	scheduler    *scheduler.Scheduler
	healthServer *HealthServer
}

// New opens storage and builds every component. Nothing runs until Run.
func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var backend journal.Backend
	switch cfg.Store.Backend {
	case config.BackendFile:
		backend = journal.NewFileBackend(cfg.Store.JournalFile)
	default:
		backend = store.NewDocumentBackend(st, journalDocumentKey)
	}

	journals, err := journal.Open(ctx, backend)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load journals: %w", err)
	}

	sessions := session.NewRegistry()
	dispatcher := dispatch.New(journals, sessions, dispatch.Config{
		CheckinExpiry: cfg.Checkin.Expiry,
		PreviewLength: cfg.Checkin.PreviewLength,
		Messages:      cfg.Messages,
	})

	matrixClient, err := matrix.New(&matrix.Config{
		Homeserver:   cfg.Matrix.Homeserver,
		UserID:       cfg.Matrix.UserID,
		AccessToken:  cfg.Matrix.AccessToken,
		AllowedUsers: cfg.Matrix.AllowedUsers,
		SyncState:    st,
		Rooms:        st,
		NoRoom:       func(err error) bool { return errors.Is(err, store.ErrNoRoom) },
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}

	sched, err := scheduler.New(cfg.Checkin.Schedule, journals, dispatcher, matrixClient, nil)
	if err != nil {
		st.Close()
		return nil, err
	}

	var healthServer *HealthServer
	if cfg.HTTPAddr != "" {
		healthServer = NewHealthServer(cfg.HTTPAddr, &statusAdapter{
			store:     st,
			journal:   journals,
			sessions:  sessions,
			scheduler: sched,
		})
	}

	return &App{
		store:        st,
		sessions:     sessions,
		handlers:     commands.NewHandlers(dispatcher),
		matrix:       matrixClient,
		scheduler:    sched,
		healthServer: healthServer,
	}, nil
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if a.healthServer != nil {
		if err := a.healthServer.Start(ctx); err != nil {
			slog.Warn("health server failed to start; continuing without it", "err", err)
		}
	}

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("failed to start Matrix client: %w", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info("nikki is running; press Ctrl+C to stop")
	<-ctx.Done()

	slog.Info("shutting down")
	return nil
}

// Stop releases everything New and Run acquired. Pending check-in expiries
// are cancelled; journals are already on disk.
func (a *App) Stop() {
	slog.Info("stopping scheduler")
	a.scheduler.Stop()

	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	if a.healthServer != nil {
		slog.Info("stopping health server")
		a.healthServer.Stop()
	}

	a.sessions.Close()

	slog.Info("closing database")
	if err := a.store.Close(); err != nil {
		slog.Warn("database close failed", "err", err)
	}
}

// handleMessage runs one inbound message through the command handlers and
// delivers the reply to the room it came from.
func (a *App) handleMessage(ctx context.Context, evt *event.Event) {
	ctx = trace.Ensure(ctx)
	logger := observability.WithTrace(ctx).With("user", evt.Sender.String(), "room", evt.RoomID.String())

	reply, err := a.handlers.HandleMessage(ctx, evt)
	if err != nil {
		// The reply already tells the user what happened.
		logger.Warn("message not applied", "err", err)
	}

	roomID := evt.RoomID.String()
	if reply.Text != "" {
		if err := a.matrix.SendRoomText(ctx, roomID, reply.Text); err != nil {
			logger.Error("failed to send reply", "err", err)
		}
	}
	if reply.RedactMessageID != "" {
		if err := a.matrix.DeleteMessage(ctx, roomID, reply.RedactMessageID); err != nil {
			logger.Warn("failed to redact archived check-in", "event", reply.RedactMessageID, "err", err)
		}
	}
}

// statusAdapter feeds the health server.
type statusAdapter struct {
	store     *store.Store
	journal   *journal.Store
	sessions  *session.Registry
	scheduler *scheduler.Scheduler
}

func (s *statusAdapter) Ping(ctx context.Context) error { return s.store.DB().PingContext(ctx) }
func (s *statusAdapter) UserCount() int                 { return s.journal.UserCount() }
func (s *statusAdapter) ActiveSessions() int            { return s.sessions.Len() }
func (s *statusAdapter) NextCheckin() time.Time         { return s.scheduler.Next() }
