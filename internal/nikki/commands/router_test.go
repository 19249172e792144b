package commands_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/nikki/internal/nikki/commands"
	"github.com/bdobrica/nikki/internal/nikki/dispatch"
)

func TestParseCommand(t *testing.T) {
	router := commands.NewRouter("/")

	tests := []struct {
		input    string
		wantName string
		wantArgs []string
		wantErr  error
	}{
		{input: "/start", wantName: "start", wantArgs: []string{}},
		{input: "  /checkin  ", wantName: "checkin", wantArgs: []string{}},
		{input: "/Edit", wantName: "edit", wantArgs: []string{}},
		{input: "/help me please", wantName: "help", wantArgs: []string{"me", "please"}},
		{input: "felt great today", wantErr: commands.ErrNotACommand},
		{input: "2", wantErr: commands.ErrNotACommand},
		{input: "", wantErr: commands.ErrNotACommand},
		{input: "/", wantErr: commands.ErrEmptyCommand},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := router.Parse(tt.input)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error, got %+v", cmd)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Name != tt.wantName {
				t.Errorf("name: got %q, want %q", cmd.Name, tt.wantName)
			}
			if !slices.Equal(cmd.Args, tt.wantArgs) {
				t.Errorf("args: got %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestRoute_UnknownCommand(t *testing.T) {
	router := commands.NewRouter("/")
	_, err := router.Route(context.Background(), "/journal", &event.Event{})
	if !errors.Is(err, commands.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestRoute_Aliases(t *testing.T) {
	router := commands.NewRouter("/")
	calls := 0
	router.Register(func(context.Context, *commands.Command, *event.Event) (dispatch.Reply, error) {
		calls++
		return dispatch.Reply{}, nil
	}, "exitedit", "cancel")

	for _, text := range []string{"/exitedit", "/cancel", "/CANCEL"} {
		if _, err := router.Route(context.Background(), text, &event.Event{}); err != nil {
			t.Errorf("Route(%q): %v", text, err)
		}
	}
	if calls != 3 {
		t.Errorf("handler called %d times, want 3", calls)
	}
}
