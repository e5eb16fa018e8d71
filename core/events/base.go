package events

import "time"

// Kind is the namespaced identifier of an event, e.g. "turn_state.started".
type Kind string

// Event is the interface every engine event satisfies. Receivers switch on
// the concrete type or on Kind, whichever suits them.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events. Embed it in
// a concrete event and construct it with NewBase.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a new event envelope with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

// Kind returns the event's namespaced identifier.
func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp returns the event's emission time.
func (b Base) Timestamp() time.Time {
	return b.timestamp
}
