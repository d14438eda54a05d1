package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom   = "join-room"
	InboundTypeLeaveRoom  = "leave-room"
	InboundTypeSubmit     = "submit-block"
	InboundTypeGetHistory = "get-history"
	InboundTypeTimeTravel = "request-time-travel"

	OutboundTypeError = "error"
)

// RoomData addresses a room; used by join-room, leave-room and get-history.
type RoomData struct {
	RoomID string `json:"roomId"`
}

// SubmitData is a cell write request.
type SubmitData struct {
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Char   string `json:"char"`
	RoomID string `json:"roomId"`
}

// TimeTravelData asks the room to rewind to Timestamp (unix ms).
type TimeTravelData struct {
	Timestamp *int64 `json:"timestamp"`
	RoomID    string `json:"roomId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Session is the payload of connected and reconnected.
type Session struct {
	Message      string `json:"message"`
	Name         string `json:"name"`
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

// Player is a roster entry.
type Player struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// PlayerJoined announces a join or a rejoin to the rest of the room.
type PlayerJoined struct {
	Player
	IsReconnect bool `json:"isReconnect"`
}

// CellUpdate is one accepted submission.
type CellUpdate struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Char      string `json:"char"`
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}

// GameState is the full room snapshot sent on join.
type GameState struct {
	Grid      [][]string   `json:"grid"`
	History   []CellUpdate `json:"history"`
	Timestamp int64        `json:"timestamp"`
}

type RoomState struct {
	RoomID    string    `json:"roomId"`
	GameState GameState `json:"gameState"`
	Players   []Player  `json:"players"`
}

type RoomUpdate struct {
	Count   int      `json:"count"`
	Players []Player `json:"players"`
}

// Notice carries a human-readable message only.
type Notice struct {
	Message string `json:"message"`
}

type Restriction struct {
	Message   string `json:"message"`
	Remaining int64  `json:"remaining"`
}

type TimeTravelUpdate struct {
	Grid      [][]string `json:"grid"`
	Timestamp int64      `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
