package events

import "tunemint/core/types"

// Event represents a structured state change emitted by the market.
type Event interface {
	EventType() string
}

// Payload is implemented by events that carry a structured record suitable
// for the append-only journal.
type Payload interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (journal, RPC,
// indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// It is the default when a component does not wire a subscriber.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
