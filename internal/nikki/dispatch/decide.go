package dispatch

import (
	"regexp"
	"strconv"
	"time"

	"github.com/bdobrica/nikki/internal/nikki/session"
)

// MutationKind is the journal change a Decision asks for.
type MutationKind int

const (
	MutateNone MutationKind = iota
	MutateEnsureUser
	MutateAppend
	MutateUpdate
)

func (k MutationKind) String() string {
	switch k {
	case MutateEnsureUser:
		return "ensure_user"
	case MutateAppend:
		return "append"
	case MutateUpdate:
		return "update"
	}
	return "none"
}

// Mutation is a pending JournalStore call.
type Mutation struct {
	Kind  MutationKind
	Index int    // MutateUpdate only, 0-based
	Text  string // MutateAppend and MutateUpdate
}

// Decision is the outcome of one transition. It is applied only after the
// mutation (if any) has been persisted.
type Decision struct {
	// Next is the session to store; nil leaves the current one untouched.
	Next session.Session

	// ArmExpiry arms the check-in expiry for Next.
	ArmExpiry bool

	Mutation Mutation
	Reply    Reply
}

// Input is everything Decide needs to know about the user.
type Input struct {
	Session session.Session
	Event   Event

	// Entries is the user's journal; nil when the user has no journal yet.
	Entries []string

	// Deadline is when an AwaitingCheckin armed now would expire.
	Deadline time.Time
}

var entryNumber = regexp.MustCompile(`^\d+$`)

// Decide maps (session, event) to the next session, the journal mutation
// and the reply. It has no side effects.
func Decide(in Input, msgs Messages, previewLen int) Decision {
	switch in.Event.Kind {
	case EventStart:
		return Decision{
			Next:     session.Idle{},
			Mutation: Mutation{Kind: MutateEnsureUser},
			Reply:    Reply{Text: msgs.Welcome},
		}

	case EventCheckin:
		return Decision{
			Next:      session.AwaitingCheckin{Deadline: in.Deadline},
			ArmExpiry: true,
			Mutation:  Mutation{Kind: MutateEnsureUser},
			Reply:     Reply{Text: msgs.CheckinPrompt},
		}

	case EventEdit:
		if len(in.Entries) == 0 {
			return Decision{Reply: Reply{Text: msgs.NoEntries}}
		}
		return Decision{
			Next:  session.AwaitingEditSelection{},
			Reply: Reply{Text: msgs.entryList(in.Entries, previewLen)},
		}

	case EventExitEdit:
		if session.IsEditing(in.Session) {
			return Decision{Next: session.Idle{}}
		}
		return Decision{}

	case EventText:
		return decideText(in, msgs)
	}
	return Decision{}
}

func decideText(in Input, msgs Messages) Decision {
	switch cur := in.Session.(type) {
	case session.AwaitingCheckin:
		return Decision{
			Next:     session.Idle{},
			Mutation: Mutation{Kind: MutateAppend, Text: in.Event.Body},
			Reply:    Reply{Text: msgs.CheckinSaved, RedactMessageID: in.Event.MessageID},
		}

	case session.AwaitingEditSelection:
		if !entryNumber.MatchString(in.Event.Body) {
			return Decision{Reply: Reply{Text: msgs.NotANumber}}
		}
		n, err := strconv.Atoi(in.Event.Body)
		if err != nil || n < 1 || n > len(in.Entries) {
			return Decision{Reply: Reply{Text: msgs.InvalidEntry}}
		}
		return Decision{
			Next:  session.AwaitingEditText{Index: n - 1},
			Reply: Reply{Text: msgs.editingEntry(n)},
		}

	case session.AwaitingEditText:
		return Decision{
			Next:     session.Idle{},
			Mutation: Mutation{Kind: MutateUpdate, Index: cur.Index, Text: in.Event.Body},
			Reply:    Reply{Text: msgs.EntryUpdated},
		}
	}

	return Decision{Reply: Reply{Text: msgs.UseCheckin}}
}
