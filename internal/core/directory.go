package core

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gridroom-server/internal/utils"
)

// Directory creates, finds and retires rooms. It is owned by the hub and
// only touched from its dispatch loop.
type Directory struct {
	opts  RoomOptions
	clock clock.Clock
	sched Scheduler
	log   *zerolog.Logger
	newID func() string

	rooms map[string]*Room
	order []string
}

// NewDirectory constructs an empty directory producing rooms sized by opts.
func NewDirectory(opts RoomOptions, clk clock.Clock, sched Scheduler, logger *zerolog.Logger) *Directory {
	return &Directory{
		opts:  opts,
		clock: clk,
		sched: sched,
		log:   logger,
		newID: utils.NewRoomID,
		rooms: make(map[string]*Room),
	}
}

// CreateRoom allocates a room with a fresh id, empty roster and empty grid.
func (d *Directory) CreateRoom() *Room {
	id := d.newID()
	for d.rooms[id] != nil {
		id = d.newID()
	}
	room := newRoom(id, d.opts, d.clock, d.sched, d.log, func(r *Room) {
		d.CloseRoom(r.ID)
		d.log.Info().Str("room_id", r.ID).Msg("room closed because it was empty")
	})
	d.rooms[id] = room
	d.order = append(d.order, id)
	d.log.Info().Str("room_id", id).Msg("room created")
	return room
}

// FindAvailableRoom returns the first room, in creation order, below capacity.
func (d *Directory) FindAvailableRoom() *Room {
	for _, id := range d.order {
		if room := d.rooms[id]; !room.IsFull() {
			return room
		}
	}
	return nil
}

// FindRoomByUser returns the room holding a roster entry for playerID.
func (d *Directory) FindRoomByUser(playerID string) *Room {
	for _, id := range d.order {
		if room := d.rooms[id]; room.Members.Has(playerID) {
			return room
		}
	}
	return nil
}

// FindRoomByID returns the room or nil.
func (d *Directory) FindRoomByID(id string) *Room {
	return d.rooms[id]
}

// CloseRoom removes the room from the directory. Idempotent.
func (d *Directory) CloseRoom(id string) {
	if _, ok := d.rooms[id]; !ok {
		return
	}
	delete(d.rooms, id)
	for i, rid := range d.order {
		if rid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
