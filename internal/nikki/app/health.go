package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bdobrica/nikki/common/version"
)

// statusSource is what the health endpoints report on.
type statusSource interface {
	Ping(ctx context.Context) error
	UserCount() int
	ActiveSessions() int
	NextCheckin() time.Time
}

// report is the JSON body of both endpoints. /health fills only the first
// block.
type report struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Error   string `json:"error,omitempty"`

	BuildTime      string     `json:"build_time,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	UptimeSecs     float64    `json:"uptime_seconds,omitempty"`
	UserCount      *int       `json:"user_count,omitempty"`
	ActiveSessions *int       `json:"active_sessions,omitempty"`
	NextCheckin    *time.Time `json:"next_checkin,omitempty"`
}

// HealthServer serves GET /health and GET /status. It only runs when
// HTTP_ADDR is set.
type HealthServer struct {
	addr      string
	source    statusSource
	startedAt time.Time
	mux       *http.ServeMux
	server    *http.Server
}

// NewHealthServer builds the server without binding the port.
func NewHealthServer(addr string, source statusSource) *HealthServer {
	h := &HealthServer{
		addr:      addr,
		source:    source,
		startedAt: time.Now(),
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, false)
	})
	h.mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, true)
	})
	return h
}

func (h *HealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Start binds the port and serves in the background until ctx is done.
func (h *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("health server: listen %s: %w", h.addr, err)
	}
	h.server = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		slog.Info("health server listening", "addr", ln.Addr().String())
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		h.Stop()
	}()
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (h *HealthServer) Stop() {
	if h.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		slog.Warn("health server shutdown error", "err", err)
	}
}

func (h *HealthServer) respond(w http.ResponseWriter, r *http.Request, detailed bool) {
	rep := report{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	}
	code := http.StatusOK

	if h.source != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.source.Ping(ctx)
		cancel()
		if err != nil {
			rep.Status = "unavailable"
			rep.Error = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	if detailed {
		started := h.startedAt
		rep.BuildTime = version.BuildTime
		rep.StartedAt = &started
		rep.UptimeSecs = time.Since(h.startedAt).Seconds()
		if h.source != nil {
			users, sessions := h.source.UserCount(), h.source.ActiveSessions()
			rep.UserCount = &users
			rep.ActiveSessions = &sessions
			if next := h.source.NextCheckin(); !next.IsZero() {
				rep.NextCheckin = &next
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		slog.Warn("health: encode response", "err", err)
	}
}
