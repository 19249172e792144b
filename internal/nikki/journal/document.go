package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DateLayout is the date stamp prefixed to every entry.
const DateLayout = "2006-01-02"

// documentSchema describes the persisted layout:
//
//	{ "<userId>": ["YYYY-MM-DD: <text>", ...], ... }
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"propertyNames": { "minLength": 1 },
	"additionalProperties": {
		"type": "array",
		"items": { "type": "string" }
	}
}`

var schema = jsonschema.MustCompileString("journals.schema.json", documentSchema)

// FormatEntry renders text as a journal entry stamped with now's date.
func FormatEntry(now time.Time, text string) string {
	return now.Format(DateLayout) + ": " + text
}

// Encode renders journals as indented, human-readable JSON. Users with no
// entries are written as [] rather than null.
func Encode(journals map[string][]string) ([]byte, error) {
	doc := make(map[string][]string, len(journals))
	for id, entries := range journals {
		if entries == nil {
			entries = []string{}
		}
		doc[id] = entries
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode journals: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a persisted document. Empty input yields an
// empty mapping.
func Decode(data []byte) (map[string][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string][]string{}, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode journals: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid journals document: %w", err)
	}

	journals := make(map[string][]string)
	if err := json.Unmarshal(data, &journals); err != nil {
		return nil, fmt.Errorf("decode journals: %w", err)
	}
	for id, entries := range journals {
		if entries == nil {
			journals[id] = []string{}
		}
	}
	return journals, nil
}
