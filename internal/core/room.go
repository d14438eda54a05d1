package core

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// RoomOptions sizes every room created by a Directory.
type RoomOptions struct {
	Capacity int
	GridSize int
	Cooldown time.Duration
}

// DefaultRoomOptions returns the standard 10-player, 10x10, 60s-cooldown room.
func DefaultRoomOptions() RoomOptions {
	return RoomOptions{
		Capacity: 10,
		GridSize: 10,
		Cooldown: 60 * time.Second,
	}
}

// Room groups the players sharing one grid and one history.
// Every method must be called from the hub's dispatch loop.
type Room struct {
	ID       string
	Capacity int
	Members  *Membership
	Grid     *GridEngine

	subscribers map[string]Conn
	log         zerolog.Logger
}

func newRoom(id string, opts RoomOptions, clk clock.Clock, sched Scheduler, logger *zerolog.Logger, onEmpty func(*Room)) *Room {
	r := &Room{
		ID:          id,
		Capacity:    opts.Capacity,
		subscribers: make(map[string]Conn),
		log:         logger.With().Str("room_id", id).Logger(),
	}
	r.Members = newMembership(r, func() { onEmpty(r) })
	r.Grid = newGridEngine(id, opts.GridSize, opts.Cooldown, clk, sched, r, &r.log)
	return r
}

// IsFull reports whether the roster reached capacity.
func (r *Room) IsFull() bool {
	return r.Members.Count() >= r.Capacity
}

// Subscribe binds a connection to room broadcasts. Returns true if newly added.
func (r *Room) Subscribe(c Conn) bool {
	if _, exists := r.subscribers[c.ID()]; exists {
		return false
	}
	r.subscribers[c.ID()] = c
	return true
}

// Unsubscribe unbinds a connection. Returns true if removed.
func (r *Room) Unsubscribe(connID string) bool {
	if _, exists := r.subscribers[connID]; !exists {
		return false
	}
	delete(r.subscribers, connID)
	return true
}

// Broadcast sends an event to every bound connection.
func (r *Room) Broadcast(event *Event) {
	r.BroadcastExcept("", event)
}

// BroadcastExcept sends an event to every bound connection but skip.
func (r *Room) BroadcastExcept(skip string, event *Event) {
	event.Room = r.ID
	for id, c := range r.subscribers {
		if id == skip {
			continue
		}
		if !c.Send(event) {
			r.log.Debug().Str("conn_id", id).Stringer("event", event.Kind).Msg("transport unavailable, event dropped")
		}
	}
}

// SendToPlayer delivers an event to the player's current connection.
// A player who is gone is a silent no-op.
func (r *Room) SendToPlayer(playerID string, event *Event) bool {
	event.Room = r.ID
	p, ok := r.Members.Lookup(playerID)
	if !ok {
		r.log.Debug().Str("player_id", playerID).Stringer("event", event.Kind).Msg("player gone, event dropped")
		return false
	}
	c, ok := r.subscribers[p.ConnID]
	if !ok || !c.Send(event) {
		r.log.Debug().Str("player_id", playerID).Str("conn_id", p.ConnID).Stringer("event", event.Kind).Msg("transport unavailable, event dropped")
		return false
	}
	return true
}

// Empty returns true if no players are in the room.
func (r *Room) Empty() bool {
	return r.Members.Count() == 0
}

func (r *Room) stateEvent() *Event {
	state := r.Grid.GetCurrentState()
	return &Event{
		Kind:    EventRoomState,
		Room:    r.ID,
		State:   &state,
		Players: r.Members.Roster(),
	}
}
