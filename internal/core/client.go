package core

// Identity is the self-asserted player identity supplied at connect time.
// It is stable across reconnects and never regenerated server-side.
type Identity struct {
	PlayerID string
	Name     string
}

// Conn is a live transport connection as seen by the core layer.
type Conn interface {
	// ID returns the transport-assigned connection id.
	ID() string
	// Send queues an event for delivery. It must not block; it reports
	// false when the event could not be queued.
	Send(event *Event) bool
	// Close terminates the transport. Safe to call more than once.
	Close(reason string)
}

// Player is a roster entry: one per player id in a room.
type Player struct {
	Identity
	ConnID string
}
