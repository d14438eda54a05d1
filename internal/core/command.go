package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the caller to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes the caller from a room.
	CommandLeaveRoom
	// CommandSubmitCell writes one cell of the room grid.
	CommandSubmitCell
	// CommandGetHistory asks for the room's full update log.
	CommandGetHistory
	// CommandTimeTravel rewinds the room grid to a past timestamp.
	CommandTimeTravel
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join-room"
	case CommandLeaveRoom:
		return "leave-room"
	case CommandSubmitCell:
		return "submit-block"
	case CommandGetHistory:
		return "get-history"
	case CommandTimeTravel:
		return "request-time-travel"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	Room      string
	X         int
	Y         int
	Char      string
	Timestamp int64
}
