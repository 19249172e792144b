package dispatch

import (
	"strconv"
	"strings"
)

// Messages are the texts the bot replies with. Zero fields fall back to
// DefaultMessages.
type Messages struct {
	Welcome       string `yaml:"welcome"`
	CheckinPrompt string `yaml:"checkin_prompt"`
	CheckinSaved  string `yaml:"checkin_saved"`
	UseCheckin    string `yaml:"use_checkin"`
	EditPrompt    string `yaml:"edit_prompt"`
	NoEntries     string `yaml:"no_entries"`
	EditingEntry  string `yaml:"editing_entry"` // {n} is replaced by the entry number
	InvalidEntry  string `yaml:"invalid_entry"`
	NotANumber    string `yaml:"not_a_number"`
	EntryUpdated  string `yaml:"entry_updated"`
	SaveFailed    string `yaml:"save_failed"`
}

// DefaultMessages is the stock English wording.
var DefaultMessages = Messages{
	Welcome:       "Hello! I'm your daily mental health check-in bot. I'll ask you a few questions about your day each evening.",
	CheckinPrompt: "How was your day? Feel free to share any positive or negative feelings you experienced.",
	CheckinSaved:  "Thank you! Your entry has been saved.",
	UseCheckin:    "Please use /checkin or wait for the scheduled check-in to add a journal entry.",
	EditPrompt:    "Which entry would you like to edit? Reply with the entry number:",
	NoEntries:     "You don't have any journal entries yet.",
	EditingEntry:  "Editing entry {n}. Please send the updated text.",
	InvalidEntry:  "Invalid entry number. Please try again.",
	NotANumber:    "Please reply with a valid entry number.",
	EntryUpdated:  "Your entry has been updated.",
	SaveFailed:    "Sorry, something went wrong while saving. Please send that again.",
}

// WithDefaults returns m with every empty field taken from DefaultMessages.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&m.Welcome, d.Welcome)
	fill(&m.CheckinPrompt, d.CheckinPrompt)
	fill(&m.CheckinSaved, d.CheckinSaved)
	fill(&m.UseCheckin, d.UseCheckin)
	fill(&m.EditPrompt, d.EditPrompt)
	fill(&m.NoEntries, d.NoEntries)
	fill(&m.EditingEntry, d.EditingEntry)
	fill(&m.InvalidEntry, d.InvalidEntry)
	fill(&m.NotANumber, d.NotANumber)
	fill(&m.EntryUpdated, d.EntryUpdated)
	fill(&m.SaveFailed, d.SaveFailed)
	return m
}

func (m Messages) editingEntry(n int) string {
	return strings.ReplaceAll(m.EditingEntry, "{n}", strconv.Itoa(n))
}

// entryList renders the numbered edit menu, one truncated preview per line.
func (m Messages) entryList(entries []string, previewLen int) string {
	var sb strings.Builder
	sb.WriteString(m.EditPrompt)
	sb.WriteString("\n")
	for i, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(": ")
		sb.WriteString(Preview(e, previewLen))
	}
	return sb.String()
}

// Preview flattens entry onto one line and cuts it to at most max runes,
// marking the cut with an ellipsis. max <= 0 disables truncation.
func Preview(entry string, max int) string {
	flat := strings.Join(strings.Fields(entry), " ")
	if max <= 0 {
		return flat
	}
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return strings.TrimRight(string(runes[:max]), " ") + "…"
}
