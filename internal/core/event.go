package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventConnected confirms a fresh session.
	EventConnected EventKind = iota
	// EventReconnected confirms a session that superseded an older connection.
	EventReconnected
	// EventRoomState delivers the full room snapshot to a joining connection.
	EventRoomState
	// EventLeftRoom confirms a voluntary leave to the caller.
	EventLeftRoom
	// EventCellSubmitted broadcasts an accepted grid mutation.
	EventCellSubmitted
	// EventRestrictionActive tells a player they are on cooldown.
	EventRestrictionActive
	// EventRestrictionDisabled tells a player their cooldown has elapsed.
	EventRestrictionDisabled
	// EventPlayerJoined notifies the rest of a room about a join or rejoin.
	EventPlayerJoined
	// EventPlayerLeft notifies the rest of a room about a removal.
	EventPlayerLeft
	// EventPlayerReconnected notifies a room that a member's connection was replaced.
	EventPlayerReconnected
	// EventRoomUpdate broadcasts the roster after every change.
	EventRoomUpdate
	// EventTimeTravel broadcasts a reconstructed grid.
	EventTimeTravel
	// EventHistory delivers the update log to the requester.
	EventHistory
	// EventError notifies clients about a domain error.
	EventError
)

var eventNames = [...]string{
	EventConnected:           "connected",
	EventReconnected:         "reconnected",
	EventRoomState:           "room-state",
	EventLeftRoom:            "left-room",
	EventCellSubmitted:       "cell-submitted",
	EventRestrictionActive:   "restriction-active",
	EventRestrictionDisabled: "restriction-disabled",
	EventPlayerJoined:        "player-joined",
	EventPlayerLeft:          "player-left",
	EventPlayerReconnected:   "player-reconnected",
	EventRoomUpdate:          "room-update",
	EventTimeTravel:          "time-travel-update",
	EventHistory:             "history",
	EventError:               "error",
}

// String returns the wire name of the event.
func (k EventKind) String() string {
	if int(k) < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened in the system.
// Only the fields relevant to Kind are populated.
type Event struct {
	Kind        EventKind
	Room        string
	Message     string
	Player      *Player   // joined, left, reconnected, connected
	Players     []Player  // room-state, room-update
	IsReconnect bool      // player-joined
	Update      *CellUpdate
	State       *GameState // room-state
	Grid        Grid       // time-travel-update
	History     []CellUpdate
	Timestamp   int64
	Remaining   int64 // restriction-active, milliseconds
	Error       *CoreError
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
