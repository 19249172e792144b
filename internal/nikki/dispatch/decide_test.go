package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/bdobrica/nikki/internal/nikki/session"
)

var threeEntries = []string{
	"2024-03-01: went for a run",
	"2024-03-02: long day at work",
	"2024-03-03: dinner with friends",
}

func TestDecide_TransitionTable(t *testing.T) {
	msgs := DefaultMessages
	deadline := time.Date(2024, 3, 14, 21, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		cur       session.Session
		entries   []string
		ev        Event
		wantNext  session.Session // nil = unchanged
		wantMut   MutationKind
		wantReply string
		wantArm   bool
	}{
		{"start from idle", session.Idle{}, nil, Event{Kind: EventStart}, session.Idle{}, MutateEnsureUser, msgs.Welcome, false},
		{"start mid edit", session.AwaitingEditText{Index: 1}, threeEntries, Event{Kind: EventStart}, session.Idle{}, MutateEnsureUser, msgs.Welcome, false},
		{"checkin from idle", session.Idle{}, nil, Event{Kind: EventCheckin}, session.AwaitingCheckin{Deadline: deadline}, MutateEnsureUser, msgs.CheckinPrompt, true},
		{"checkin again", session.AwaitingCheckin{}, nil, Event{Kind: EventCheckin}, session.AwaitingCheckin{Deadline: deadline}, MutateEnsureUser, msgs.CheckinPrompt, true},
		{"edit empty journal", session.Idle{}, []string{}, Event{Kind: EventEdit}, nil, MutateNone, msgs.NoEntries, false},
		{"edit unknown user", session.AwaitingCheckin{}, nil, Event{Kind: EventEdit}, nil, MutateNone, msgs.NoEntries, false},
		{"exit edit from selection", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventExitEdit}, session.Idle{}, MutateNone, "", false},
		{"exit edit from text", session.AwaitingEditText{Index: 0}, threeEntries, Event{Kind: EventExitEdit}, session.Idle{}, MutateNone, "", false},
		{"exit edit while checkin", session.AwaitingCheckin{}, threeEntries, Event{Kind: EventExitEdit}, nil, MutateNone, "", false},
		{"text while idle", session.Idle{}, threeEntries, Event{Kind: EventText, Body: "hi"}, nil, MutateNone, msgs.UseCheckin, false},
		{"text while checkin", session.AwaitingCheckin{}, threeEntries, Event{Kind: EventText, Body: "good day"}, session.Idle{}, MutateAppend, msgs.CheckinSaved, false},
		{"valid selection", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "2"}, session.AwaitingEditText{Index: 1}, MutateNone, "Editing entry 2. Please send the updated text.", false},
		{"selection too big", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "99"}, nil, MutateNone, msgs.InvalidEntry, false},
		{"selection zero", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "0"}, nil, MutateNone, msgs.InvalidEntry, false},
		{"selection overflow", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "99999999999999999999999"}, nil, MutateNone, msgs.InvalidEntry, false},
		{"selection signed", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "+1"}, nil, MutateNone, msgs.NotANumber, false},
		{"selection decimal", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "1.0"}, nil, MutateNone, msgs.NotANumber, false},
		{"selection words", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "the second one"}, nil, MutateNone, msgs.NotANumber, false},
		{"selection trailing newline", session.AwaitingEditSelection{}, threeEntries, Event{Kind: EventText, Body: "2\n"}, nil, MutateNone, msgs.NotANumber, false},
		{"edit text", session.AwaitingEditText{Index: 2}, threeEntries, Event{Kind: EventText, Body: "revised"}, session.Idle{}, MutateUpdate, msgs.EntryUpdated, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(Input{Session: tc.cur, Entries: tc.entries, Event: tc.ev, Deadline: deadline}, msgs, DefaultPreviewLength)

			if tc.wantNext == nil {
				if d.Next != nil {
					t.Errorf("expected session unchanged, got %#v", d.Next)
				}
			} else if d.Next != tc.wantNext {
				t.Errorf("next: got %#v, want %#v", d.Next, tc.wantNext)
			}
			if d.Mutation.Kind != tc.wantMut {
				t.Errorf("mutation: got %v, want %v", d.Mutation.Kind, tc.wantMut)
			}
			if d.Reply.Text != tc.wantReply {
				t.Errorf("reply: got %q, want %q", d.Reply.Text, tc.wantReply)
			}
			if d.ArmExpiry != tc.wantArm {
				t.Errorf("arm expiry: got %v, want %v", d.ArmExpiry, tc.wantArm)
			}
		})
	}
}

func TestDecide_EditListsNumberedPreviews(t *testing.T) {
	d := Decide(Input{Session: session.Idle{}, Entries: threeEntries, Event: Event{Kind: EventEdit}}, DefaultMessages, DefaultPreviewLength)

	if d.Next != (session.AwaitingEditSelection{}) {
		t.Fatalf("expected AwaitingEditSelection, got %#v", d.Next)
	}
	lines := strings.Split(d.Reply.Text, "\n")
	if lines[0] != DefaultMessages.EditPrompt {
		t.Errorf("first line: got %q", lines[0])
	}
	for i, want := range []string{"1: ", "2: ", "3: "} {
		if !strings.HasPrefix(lines[i+2], want) {
			t.Errorf("line %d: got %q, want prefix %q", i+2, lines[i+2], want)
		}
	}
}

func TestDecide_CheckinTextCarriesBodyAndRedaction(t *testing.T) {
	d := Decide(Input{
		Session: session.AwaitingCheckin{},
		Event:   Event{Kind: EventText, Body: "felt great today", MessageID: "$evt1"},
	}, DefaultMessages, DefaultPreviewLength)

	if d.Mutation.Text != "felt great today" {
		t.Errorf("mutation text: got %q", d.Mutation.Text)
	}
	if d.Reply.RedactMessageID != "$evt1" {
		t.Errorf("redact: got %q", d.Reply.RedactMessageID)
	}
}

func TestPreview(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 40, "short"},
		{"2024-03-01: a\nmultiline   entry", 40, "2024-03-01: a multiline entry"},
		{"2024-03-01: this one is definitely too long", 20, "2024-03-01: this one…"},
		{"héllo wörld", 5, "héllo…"},
		{"no limit at all", 0, "no limit at all"},
	}
	for _, tc := range cases {
		if got := Preview(tc.in, tc.max); got != tc.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestMessages_WithDefaults(t *testing.T) {
	m := Messages{Welcome: "Hi there", EditingEntry: "Entry #{n}, go ahead."}.WithDefaults()
	if m.Welcome != "Hi there" {
		t.Errorf("custom welcome overwritten: %q", m.Welcome)
	}
	if m.CheckinPrompt != DefaultMessages.CheckinPrompt {
		t.Errorf("missing default prompt: %q", m.CheckinPrompt)
	}
	if got := m.editingEntry(3); got != "Entry #3, go ahead." {
		t.Errorf("editingEntry: got %q", got)
	}
}
