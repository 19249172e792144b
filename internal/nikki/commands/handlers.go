package commands

import (
	"context"
	"errors"
	"fmt"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/nikki/common/version"
	"github.com/bdobrica/nikki/internal/nikki/dispatch"
)

// Prefix starts every command.
const Prefix = "/"

// Dispatcher is the state machine the handlers feed.
type Dispatcher interface {
	Handle(ctx context.Context, userID string, ev dispatch.Event) (dispatch.Reply, error)
	AwaitingText(userID string) bool
}

// Handlers turns chat messages into dispatcher events.
type Handlers struct {
	dispatcher Dispatcher
	router     *Router
}

// NewHandlers creates a Handlers with every journaling command registered.
func NewHandlers(d Dispatcher) *Handlers {
	h := &Handlers{dispatcher: d, router: NewRouter(Prefix)}
	h.router.Register(h.event(dispatch.EventStart), "start")
	h.router.Register(h.event(dispatch.EventCheckin), "checkin")
	h.router.Register(h.event(dispatch.EventEdit), "edit")
	h.router.Register(h.event(dispatch.EventExitEdit), "exitedit", "cancel")
	h.router.Register(h.HandleHelp, "help")
	return h
}

// HandleMessage processes one text message. Commands go to their handler;
// anything else reaches the dispatcher as free text. An unknown command is
// journal text while a check-in or an edit is waiting for it, and gets the
// help text otherwise. Dispatcher failures are returned with their reply.
func (h *Handlers) HandleMessage(ctx context.Context, evt *event.Event) (dispatch.Reply, error) {
	body := evt.Content.AsMessage().Body

	reply, err := h.router.Route(ctx, body, evt)
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, ErrNotACommand):
		return h.text(ctx, body, evt)
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrEmptyCommand):
		if h.dispatcher.AwaitingText(evt.Sender.String()) {
			return h.text(ctx, body, evt)
		}
		return h.HandleHelp(ctx, nil, evt)
	default:
		return reply, err
	}
}

func (h *Handlers) text(ctx context.Context, body string, evt *event.Event) (dispatch.Reply, error) {
	return h.dispatcher.Handle(ctx, evt.Sender.String(), dispatch.Event{
		Kind:      dispatch.EventText,
		Body:      body,
		MessageID: evt.ID.String(),
	})
}

func (h *Handlers) event(kind dispatch.EventKind) Handler {
	return func(ctx context.Context, _ *Command, evt *event.Event) (dispatch.Reply, error) {
		return h.dispatcher.Handle(ctx, evt.Sender.String(), dispatch.Event{Kind: kind})
	}
}

// HandleHelp lists the available commands
func (h *Handlers) HandleHelp(ctx context.Context, cmd *Command, evt *event.Event) (dispatch.Reply, error) {
	help := fmt.Sprintf(`Nikki %s, your daily journal

/start - create your journal
/checkin - write today's entry
/edit - pick a past entry to rewrite
/exitedit - stop editing (also /cancel)
/help - show this message

You will get a check-in prompt every day. Reply to it and your answer is saved.`,
		version.Version)
	return dispatch.Reply{Text: help}, nil
}
