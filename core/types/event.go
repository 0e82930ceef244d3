package types

import (
	"encoding/json"
	"sort"
)

const (
	// EventStandard names the event schema emitted by the ledger.
	EventStandard = "x-fiat-token"
	// EventVersion is the schema version of EventStandard.
	EventVersion = "1.0.0"
	// EventLogPrefix precedes the JSON envelope in log lines.
	EventLogPrefix = "EVENT_JSON:"
)

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	attrs := make(map[string]string, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return &Event{Type: e.Type, Attributes: attrs}
}

// Keys returns the attribute names in sorted order.
func (e *Event) Keys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type envelope struct {
	Standard string              `json:"standard"`
	Version  string              `json:"version"`
	Event    string              `json:"event"`
	Data     []map[string]string `json:"data"`
}

// Envelope renders the event using the standard/version/event/data layout.
func (e *Event) Envelope() ([]byte, error) {
	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return json.Marshal(envelope{
		Standard: EventStandard,
		Version:  EventVersion,
		Event:    e.Type,
		Data:     []map[string]string{attrs},
	})
}

// LogLine returns the envelope prefixed with EventLogPrefix.
func (e *Event) LogLine() (string, error) {
	raw, err := e.Envelope()
	if err != nil {
		return "", err
	}
	return EventLogPrefix + string(raw), nil
}
