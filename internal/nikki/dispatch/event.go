package dispatch

// EventKind identifies what the user did.
type EventKind int

const (
	EventStart EventKind = iota
	EventCheckin
	EventEdit
	EventExitEdit
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCheckin:
		return "checkin"
	case EventEdit:
		return "edit"
	case EventExitEdit:
		return "exitedit"
	case EventText:
		return "text"
	}
	return "unknown"
}

// Event is one inbound user action. Body and MessageID are set for
// EventText only.
type Event struct {
	Kind      EventKind
	Body      string
	MessageID string
}

// Reply is what the transport should do in response to an event.
type Reply struct {
	// Text is sent to the user; empty means stay silent.
	Text string
	// RedactMessageID, when set, names the user's message to remove from
	// the visible history (an archived check-in).
	RedactMessageID string
}
