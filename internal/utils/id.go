package utils

import "github.com/google/uuid"

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRoomID returns a room identifier; the prefix keeps room ids visually
// distinct from connection ids in logs.
func NewRoomID() string {
	return "room-" + uuid.NewString()
}
