// Package matrix is nikki's chat transport: it receives journaling messages
// from Matrix users and delivers replies and scheduled prompts.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/nikki/common/retry"
	"github.com/bdobrica/nikki/common/version"
)

// ErrNoRoomStore is returned by SendText when the client has no RoomStore.
var ErrNoRoomStore = errors.New("matrix: no room store configured")

// RoomStore remembers which room each user talks to the bot in.
// *store.Store satisfies it.
type RoomStore interface {
	SetUserRoom(ctx context.Context, userID, roomID string) error
	GetUserRoom(ctx context.Context, userID string) (string, error)
}

// Config holds Matrix client configuration
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string

	// AllowedUsers restricts who may use the bot. Empty allows everyone.
	AllowedUsers []string

	// SyncState persists next_batch across restarts. When nil, an in-memory
	// store is used and recent room history is seen again on every restart.
	SyncState SyncStateStore

	// Rooms maps users to their direct chat room.
	Rooms RoomStore
	// NoRoom reports whether an error from Rooms.GetUserRoom means "unknown
	// user" rather than a storage failure.
	NoRoom func(error) bool

	// Retry controls resending after transient homeserver errors.
	Retry retry.Config
}

// MessageHandler processes incoming Matrix messages
type MessageHandler func(ctx context.Context, evt *event.Event)

// Client wraps the Matrix client
type Client struct {
	client     *mautrix.Client
	config     *Config
	allowed    map[id.UserID]bool
	startedAt  time.Time
	msgHandler MessageHandler

	roomMu sync.Mutex // serializes DM creation

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a new Matrix client
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}
	client.UserAgent = version.UserAgent()
	if config.Retry.MaxAttempts == 0 {
		config.Retry = retry.DefaultConfig
	}

	c := &Client{
		client:    client,
		config:    config,
		startedAt: time.Now(),
		stopCh:    make(chan struct{}),
	}
	if len(config.AllowedUsers) > 0 {
		c.allowed = make(map[id.UserID]bool, len(config.AllowedUsers))
		for _, u := range config.AllowedUsers {
			c.allowed[id.UserID(u)] = true
		}
	}

	if config.SyncState != nil {
		client.Store = persistentSyncStore{state: config.SyncState}
	} else {
		slog.Warn("matrix: no sync state store, room history will replay on restart")
	}

	return c, nil
}

// Start begins syncing with the Matrix homeserver
func (c *Client) Start(ctx context.Context, handler MessageHandler) error {
	c.msgHandler = handler

	slog.Warn("Matrix E2EE is not enabled; journal entries are transmitted in plaintext")

	syncer, ok := c.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return errors.New("matrix: unexpected syncer type")
	}
	syncer.OnEventType(event.EventMessage, c.handleMessage)
	syncer.OnEventType(event.StateMember, c.handleMember)

	go c.syncLoop()
	return nil
}

// syncLoop keeps /sync running with exponential back-off so a transient
// homeserver error does not leave the bot deaf.
func (c *Client) syncLoop() {
	const (
		backoffMin = 2 * time.Second
		backoffMax = 5 * time.Minute
	)
	backoff := backoffMin
	for {
		started := time.Now()
		err := c.client.Sync()
		if err == nil {
			// Only a StopSync call makes Sync return nil.
			return
		}
		select {
		case <-c.stopCh:
			return
		default:
		}
		if time.Since(started) > backoffMax {
			backoff = backoffMin
		}
		slog.Error("Matrix sync stopped; reconnecting", "err", err, "backoff", backoff)
		select {
		case <-c.stopCh:
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffMax)
	}
}

// Stop stops the Matrix client. It is safe to call more than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.client.StopSync()
	})
}

// SendText delivers body to userID's room, creating a direct chat first when
// the user has none.
func (c *Client) SendText(ctx context.Context, userID, body string) error {
	roomID, err := c.roomFor(ctx, id.UserID(userID))
	if err != nil {
		return err
	}
	return c.SendRoomText(ctx, roomID.String(), body)
}

// SendRoomText sends a plain text message to a room, retrying transient
// failures.
func (c *Client) SendRoomText(ctx context.Context, roomID, body string) error {
	err := retry.Do(ctx, c.config.Retry, func(attempt int) error {
		_, err := c.client.SendText(ctx, id.RoomID(roomID), body)
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// DeleteMessage redacts a message so it no longer shows in the room history.
func (c *Client) DeleteMessage(ctx context.Context, roomID, eventID string) error {
	err := retry.Do(ctx, c.config.Retry, func(attempt int) error {
		_, err := c.client.RedactEvent(ctx, id.RoomID(roomID), id.EventID(eventID), mautrix.ReqRedact{
			Reason: "archived to journal",
		})
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("failed to redact message: %w", err)
	}
	return nil
}

// GetUserID returns the client's user ID
func (c *Client) GetUserID() string {
	return c.config.UserID
}

// IsAllowed reports whether userID may use the bot.
func (c *Client) IsAllowed(userID id.UserID) bool {
	return c.allowed == nil || c.allowed[userID]
}

// classify marks errors that will not go away on retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mautrix.MForbidden) || errors.Is(err, mautrix.MUnknownToken) ||
		errors.Is(err, mautrix.MNotFound) {
		return retry.Permanent(err)
	}
	return err
}

// roomFor returns the recorded room for userID, creating and recording a
// direct chat when none is known.
func (c *Client) roomFor(ctx context.Context, userID id.UserID) (id.RoomID, error) {
	if c.config.Rooms == nil {
		return "", ErrNoRoomStore
	}

	c.roomMu.Lock()
	defer c.roomMu.Unlock()

	roomID, err := c.config.Rooms.GetUserRoom(ctx, userID.String())
	if err == nil {
		return id.RoomID(roomID), nil
	}
	if c.config.NoRoom == nil || !c.config.NoRoom(err) {
		return "", fmt.Errorf("look up room for %s: %w", userID, err)
	}

	var resp *mautrix.RespCreateRoom
	err = retry.Do(ctx, c.config.Retry, func(attempt int) error {
		var cerr error
		resp, cerr = c.client.CreateRoom(ctx, &mautrix.ReqCreateRoom{
			Preset:   "trusted_private_chat",
			IsDirect: true,
			Invite:   []id.UserID{userID},
		})
		return classify(cerr)
	})
	if err != nil {
		return "", fmt.Errorf("create direct chat with %s: %w", userID, err)
	}

	if err := c.config.Rooms.SetUserRoom(ctx, userID.String(), resp.RoomID.String()); err != nil {
		slog.Warn("matrix: created direct chat but could not record it", "user", userID, "room", resp.RoomID, "err", err)
	}
	slog.Info("matrix: created direct chat", "user", userID, "room", resp.RoomID)
	return resp.RoomID, nil
}

// handleMessage filters incoming messages and hands text from allowed users
// to the registered handler.
func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	if !c.accept(evt) {
		return
	}

	c.rememberRoom(ctx, evt.Sender, evt.RoomID)

	// Replies carry a quote of the original; only the new text is journal text.
	if msg := evt.Content.AsMessage(); msg.RelatesTo.GetReplyTo() != "" {
		msg.RemoveReplyFallback()
		msg.Body = event.TrimReplyFallbackText(msg.Body)
	}

	if c.msgHandler != nil {
		c.msgHandler(ctx, evt)
	}
}

// accept reports whether evt is a fresh text message from an allowed user
// other than the bot itself.
func (c *Client) accept(evt *event.Event) bool {
	if evt.Sender == id.UserID(c.config.UserID) {
		return false
	}

	msgContent := evt.Content.AsMessage()
	if msgContent == nil || msgContent.MsgType != event.MsgText {
		return false
	}

	// Edits of earlier messages are not new input.
	if msgContent.RelatesTo.GetReplaceID() != "" {
		slog.Debug("matrix: ignoring message edit", "user", evt.Sender, "event", evt.ID)
		return false
	}

	// Backlog delivered by the first sync after startup.
	if evt.Timestamp < c.startedAt.UnixMilli() {
		return false
	}

	if !c.IsAllowed(evt.Sender) {
		slog.Debug("matrix: ignoring message from user not on the allowlist", "user", evt.Sender)
		return false
	}
	return true
}

// handleMember auto-joins rooms the bot is invited to by allowed users.
func (c *Client) handleMember(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != c.config.UserID {
		return
	}
	member := evt.Content.AsMember()
	if member == nil || member.Membership != event.MembershipInvite {
		return
	}
	if !c.IsAllowed(evt.Sender) {
		slog.Info("matrix: ignoring invite from user not on the allowlist", "user", evt.Sender, "room", evt.RoomID)
		return
	}

	if err := c.joinRoom(ctx, evt.RoomID); err != nil {
		slog.Error("matrix: failed to join room", "room", evt.RoomID, "err", err)
		return
	}
	slog.Info("matrix: joined room on invite", "user", evt.Sender, "room", evt.RoomID)
	c.rememberRoom(ctx, evt.Sender, evt.RoomID)
}

func (c *Client) rememberRoom(ctx context.Context, userID id.UserID, roomID id.RoomID) {
	if c.config.Rooms == nil {
		return
	}
	if err := c.config.Rooms.SetUserRoom(ctx, userID.String(), roomID.String()); err != nil {
		slog.Warn("matrix: failed to record user room", "user", userID, "room", roomID, "err", err)
	}
}

// joinRoom attempts to join a room
func (c *Client) joinRoom(ctx context.Context, roomID id.RoomID) error {
	return retry.Do(ctx, c.config.Retry, func(attempt int) error {
		_, err := c.client.JoinRoomByID(ctx, roomID)
		return classify(err)
	})
}
