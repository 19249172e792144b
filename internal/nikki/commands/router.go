// Package commands parses slash commands and routes them to handlers.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/nikki/internal/nikki/dispatch"
)

// Command is a parsed slash command.
type Command struct {
	Name    string
	Args    []string
	RawText string
}

// ErrNotACommand is returned by Parse when the message does not start with
// the command prefix. Callers should use errors.Is to tell this expected case
// apart from real errors.
var ErrNotACommand = errors.New("not a command (missing prefix)")

// ErrEmptyCommand is returned by Parse for a bare prefix.
var ErrEmptyCommand = errors.New("empty command")

// ErrUnknownCommand is returned by Route when no handler matches.
var ErrUnknownCommand = errors.New("unknown command")

// Handler handles one command for the sender of evt.
type Handler func(ctx context.Context, cmd *Command, evt *event.Event) (dispatch.Reply, error)

// Router routes commands to handlers
type Router struct {
	handlers map[string]Handler
	prefix   string
}

// NewRouter creates a new command router
func NewRouter(prefix string) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		prefix:   prefix,
	}
}

// Register registers a handler under one or more names.
func (r *Router) Register(handler Handler, names ...string) {
	for _, name := range names {
		r.handlers[strings.ToLower(name)] = handler
	}
}

// Parse parses a message into a command. Names are case-insensitive.
func (r *Router) Parse(text string) (*Command, error) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, r.prefix) {
		return nil, ErrNotACommand
	}

	text = strings.TrimPrefix(text, r.prefix)
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil, ErrEmptyCommand
	}

	return &Command{
		Name:    strings.ToLower(parts[0]),
		Args:    parts[1:],
		RawText: text,
	}, nil
}

// Route parses text and runs the matching handler.
func (r *Router) Route(ctx context.Context, text string, evt *event.Event) (dispatch.Reply, error) {
	cmd, err := r.Parse(text)
	if err != nil {
		return dispatch.Reply{}, err
	}

	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return dispatch.Reply{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	return handler(ctx, cmd, evt)
}
