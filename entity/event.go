package entity

import (
	"fmt"
	"strings"
	"time"
)

// Event is one parsed CLEF log record. Reified attributes (the @-prefixed
// keys of the wire format) are promoted to typed fields; every other key
// lands in UserFields. A key never appears in both places.
//
// Presence rules: a zero Timestamp, an empty Level/Message/MessageTemplate
// and a null Value all mean "unset". Events are constructed once by the
// parser and never mutated afterwards.
type Event struct {
	Timestamp       time.Time
	Level           string
	Message         string
	MessageTemplate string

	// Exception, EventID and Renderings are carried through uninterpreted;
	// the wire format allows both strings and structured payloads here.
	Exception  Value
	EventID    Value
	Renderings Value

	UserFields map[string]Value

	// Provenance for diagnostics; not part of the log data itself.
	LineNumber int
	RawLine    string
}

// SourcedEvent tags an event with the name of the loader source that
// produced it; used by the engine and storage layers.
type SourcedEvent struct {
	Source string
	Event  Event
}

// HasTimestamp reports whether the event carried a parseable @t field.
func (e Event) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// LevelEquals compares the event level case-insensitively. An event with no
// level never equals anything, including the empty string.
func (e Event) LevelEquals(level string) bool {
	return e.Level != "" && strings.EqualFold(e.Level, level)
}

// UserField looks up a user-defined field by name.
func (e Event) UserField(name string) (Value, bool) {
	v, ok := e.UserFields[name]
	return v, ok
}

// String renders the event the way log viewers conventionally do:
// "[timestamp] LEVEL: message".
func (e Event) String() string {
	ts := "-"
	if e.HasTimestamp() {
		ts = e.Timestamp.Format(time.RFC3339Nano)
	}
	level := e.Level
	if level == "" {
		level = "-"
	}
	return fmt.Sprintf("[%s] %s: %s", ts, level, e.Message)
}
