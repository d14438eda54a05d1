package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Options configures a Hub.
type Options struct {
	GracePeriod time.Duration
	Room        RoomOptions
	MailboxSize int
	Clock       clock.Clock
	Logger      *zerolog.Logger
}

// DefaultOptions returns a 5s grace period and standard rooms.
func DefaultOptions() Options {
	return Options{
		GracePeriod: 5 * time.Second,
		Room:        DefaultRoomOptions(),
		MailboxSize: 256,
	}
}

type sessionState int

const (
	stateAuthenticated sessionState = iota
	stateActive
	stateGraceDisconnected
	stateRemoved
)

func (s sessionState) String() string {
	switch s {
	case stateAuthenticated:
		return "authenticated"
	case stateActive:
		return "active"
	case stateGraceDisconnected:
		return "grace_disconnected"
	case stateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// session is one connection's lifecycle record. graceTimer is set only while
// the session is grace-disconnected.
type session struct {
	conn       Conn
	identity   Identity
	state      sessionState
	graceTimer *clock.Timer
}

func (s *session) stopGraceTimer() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Rooms    int
	Sessions int
}

// Hub is the session registry. It owns every live connection, maps each
// player id to its current connection and serialises all room mutations on
// a single dispatch loop.
type Hub struct {
	opts  Options
	clock clock.Clock
	log   *zerolog.Logger

	mailbox  chan func()
	done     chan struct{}
	stopOnce sync.Once

	// Loop-owned state.
	sessions map[string]*session
	players  map[string]string
	rooms    *Directory
}

// NewHub creates a hub. Call Run to start dispatching.
func NewHub(opts Options) *Hub {
	def := DefaultOptions()
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = def.GracePeriod
	}
	if opts.Room.Capacity <= 0 {
		opts.Room.Capacity = def.Room.Capacity
	}
	if opts.Room.GridSize <= 0 {
		opts.Room.GridSize = def.Room.GridSize
	}
	if opts.Room.Cooldown <= 0 {
		opts.Room.Cooldown = def.Room.Cooldown
	}
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = def.MailboxSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	h := &Hub{
		opts:     opts,
		clock:    opts.Clock,
		log:      opts.Logger,
		mailbox:  make(chan func(), opts.MailboxSize),
		done:     make(chan struct{}),
		sessions: make(map[string]*session),
		players:  make(map[string]string),
	}
	h.rooms = NewDirectory(opts.Room, opts.Clock, h, opts.Logger)
	return h
}

// Run processes the mailbox until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case fn := <-h.mailbox:
			fn()
		}
	}
}

// AfterFunc schedules fn on the dispatch loop. It implements Scheduler.
func (h *Hub) AfterFunc(d time.Duration, fn func()) *clock.Timer {
	return h.clock.AfterFunc(d, func() { h.post(fn) })
}

// Connect registers an authenticated connection for identity.
func (h *Hub) Connect(conn Conn, id Identity) {
	if !h.post(func() { h.onConnected(conn, id) }) {
		conn.Close("server shutting down")
	}
}

// Disconnect reports that the transport for connID went away.
func (h *Hub) Disconnect(connID, reason string) {
	h.post(func() { h.onDisconnected(connID, reason) })
}

// Dispatch routes a client command to the room layer.
func (h *Hub) Dispatch(connID string, cmd *Command) {
	h.post(func() { h.handleCommand(connID, cmd) })
}

// StartRoom returns an under-capacity room id, creating a room if needed.
func (h *Hub) StartRoom(ctx context.Context) (string, error) {
	var id string
	err := h.do(ctx, func() {
		room := h.rooms.FindAvailableRoom()
		if room == nil {
			room = h.rooms.CreateRoom()
		}
		id = room.ID
	})
	return id, err
}

// Stats reads hub counters through the dispatch loop.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := h.do(ctx, func() {
		st = Stats{Rooms: h.rooms.Len(), Sessions: len(h.sessions)}
	})
	return st, err
}

func (h *Hub) post(fn func()) bool {
	select {
	case h.mailbox <- fn:
		return true
	case <-h.done:
		return false
	}
}

// do runs fn on the dispatch loop and waits for it.
func (h *Hub) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !h.post(func() { fn(); close(finished) }) {
		return ErrHubStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) onConnected(conn Conn, id Identity) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("conn_id", conn.ID()).Msg("connect handler failed")
			conn.Send(errorEvent(coreError(ErrCodeConnectFailed, "Failed to connect")))
			conn.Close("connect failed")
		}
	}()

	s := &session{conn: conn, identity: id, state: stateAuthenticated}

	if oldID, ok := h.players[id.PlayerID]; ok && oldID != conn.ID() {
		if old, ok := h.sessions[oldID]; ok {
			h.supersede(old, s)
			return
		}
	}

	h.sessions[conn.ID()] = s
	h.players[id.PlayerID] = conn.ID()
	s.state = stateActive

	player := Player{Identity: id, ConnID: conn.ID()}
	conn.Send(&Event{Kind: EventConnected, Message: "Connected successfully", Player: &player})
	h.log.Info().Str("player_id", id.PlayerID).Str("name", id.Name).Str("conn_id", conn.ID()).Msg("player connected")
}

// supersede replaces old with s as the player's only live connection. The
// rebind and the teardown happen in one loop turn, so the two connections
// are never both current.
func (h *Hub) supersede(old, s *session) {
	pid := s.identity.PlayerID
	h.log.Info().
		Str("player_id", pid).
		Str("old_conn_id", old.conn.ID()).
		Str("new_conn_id", s.conn.ID()).
		Stringer("old_state", old.state).
		Msg("reconnection detected")

	old.stopGraceTimer()
	old.state = stateRemoved
	delete(h.sessions, old.conn.ID())

	h.sessions[s.conn.ID()] = s
	h.players[pid] = s.conn.ID()
	s.state = stateActive

	if room := h.rooms.FindRoomByUser(pid); room != nil {
		room.Members.UpdateConnectionID(pid, s.conn)
		if remaining := room.Grid.RemainingCooldown(pid); remaining > 0 {
			s.conn.Send(&Event{
				Kind:      EventRestrictionActive,
				Room:      room.ID,
				Message:   "You're still on cooldown.",
				Remaining: remainingMillis(remaining),
			})
		}
		player := Player{Identity: s.identity, ConnID: s.conn.ID()}
		room.Broadcast(&Event{Kind: EventPlayerReconnected, Player: &player})
		h.log.Info().Str("player_id", pid).Str("room_id", room.ID).Msg("player rejoined previous room")
	}

	old.conn.Close("superseded by a newer connection")

	player := Player{Identity: s.identity, ConnID: s.conn.ID()}
	s.conn.Send(&Event{Kind: EventReconnected, Message: "Reconnected successfully", Player: &player})
}

func (h *Hub) onDisconnected(connID, reason string) {
	s, ok := h.sessions[connID]
	if !ok {
		h.log.Debug().Str("conn_id", connID).Str("reason", reason).Msg("disconnect for superseded connection ignored")
		return
	}
	if s.state != stateActive {
		return
	}

	pid := s.identity.PlayerID
	h.log.Info().Str("player_id", pid).Str("conn_id", connID).Str("reason", reason).Msg("player disconnected")

	room := h.rooms.FindRoomByUser(pid)
	if room == nil || h.players[pid] != connID {
		h.forget(s)
		return
	}

	s.state = stateGraceDisconnected
	s.graceTimer = h.AfterFunc(h.opts.GracePeriod, func() { h.expireGrace(connID, pid) })
}

// expireGrace runs when a grace period elapses. It is a no-op unless the
// player is still mapped to the same connection.
func (h *Hub) expireGrace(connID, pid string) {
	if current := h.players[pid]; current != connID {
		h.log.Info().Str("player_id", pid).Str("old_conn_id", connID).Str("new_conn_id", current).Msg("player reconnected, keeping in room")
		return
	}
	s, ok := h.sessions[connID]
	if !ok || s.state != stateGraceDisconnected {
		return
	}
	s.graceTimer = nil

	if room := h.rooms.FindRoomByUser(pid); room != nil {
		h.log.Info().Str("player_id", pid).Str("conn_id", connID).Str("room_id", room.ID).Msg("player not reconnected, removing from room")
		room.Members.RemovePlayer(pid)
	}
	h.forget(s)
}

func (h *Hub) forget(s *session) {
	s.stopGraceTimer()
	s.state = stateRemoved
	delete(h.sessions, s.conn.ID())
	if h.players[s.identity.PlayerID] == s.conn.ID() {
		delete(h.players, s.identity.PlayerID)
	}
}

func (h *Hub) handleCommand(connID string, cmd *Command) {
	s, ok := h.sessions[connID]
	if !ok {
		return
	}
	if s.state != stateActive {
		s.conn.Send(errorEvent(wrapCoreError(ErrCodeNotConnected, "Connection is not active", ErrNotConnected)))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("conn_id", connID).Stringer("command", cmd.Kind).Msg("command handler failed")
			s.conn.Send(errorEvent(coreError(ErrCodeInternal, fmt.Sprintf("Failed to handle %s", cmd.Kind))))
		}
	}()

	var err error
	var fallback string
	switch cmd.Kind {
	case CommandJoinRoom:
		err, fallback = h.handleJoin(s, cmd), ErrCodeJoinRoom
	case CommandLeaveRoom:
		err, fallback = h.handleLeave(s, cmd), ErrCodeLeaveRoom
	case CommandSubmitCell:
		err, fallback = h.handleSubmit(s, cmd), ErrCodeSubmitBlock
	case CommandGetHistory:
		err, fallback = h.handleHistory(s, cmd), ErrCodeGetHistory
	case CommandTimeTravel:
		err, fallback = h.handleTimeTravel(s, cmd), ErrCodeTimeTravel
	default:
		err = coreError(ErrCodeBadRequest, "Unknown command")
	}
	if err != nil {
		ce := AsCoreError(err, fallback)
		h.log.Debug().
			Str("player_id", s.identity.PlayerID).
			Str("room_id", cmd.Room).
			Stringer("command", cmd.Kind).
			Str("code", ce.Code).
			Msg("command rejected")
		s.conn.Send(errorEvent(ce))
	}
}

func (h *Hub) findRoom(id string) (*Room, error) {
	room := h.rooms.FindRoomByID(id)
	if room == nil {
		return nil, wrapCoreError(ErrCodeRoomNotFound, "Room not found", ErrRoomNotFound)
	}
	return room, nil
}

func (h *Hub) memberRoom(s *session, id string) (*Room, error) {
	room, err := h.findRoom(id)
	if err != nil {
		return nil, err
	}
	if !room.Members.Has(s.identity.PlayerID) {
		return nil, wrapCoreError(ErrCodeNotInRoom, "You are not in this room", ErrNotInRoom)
	}
	return room, nil
}

func (h *Hub) handleJoin(s *session, cmd *Command) error {
	room, err := h.findRoom(cmd.Room)
	if err != nil {
		return err
	}
	pid := s.identity.PlayerID

	current := h.rooms.FindRoomByUser(pid)
	if current == room {
		s.conn.Send(room.stateEvent())
		return nil
	}
	if room.IsFull() {
		return wrapCoreError(ErrCodeRoomFull, "Room is full", ErrRoomFull)
	}
	if current != nil {
		h.log.Warn().Str("player_id", pid).Str("current_room", current.ID).Str("requested_room", room.ID).Msg("player switching rooms")
		current.Members.RemovePlayer(pid)
	}

	room.Members.AddPlayer(s.identity, s.conn)
	s.conn.Send(room.stateEvent())
	return nil
}

func (h *Hub) handleLeave(s *session, cmd *Command) error {
	room, err := h.memberRoom(s, cmd.Room)
	if err != nil {
		return err
	}
	room.Members.RemovePlayer(s.identity.PlayerID)
	s.conn.Send(&Event{Kind: EventLeftRoom, Room: room.ID, Message: "Left room successfully"})
	return nil
}

func (h *Hub) handleSubmit(s *session, cmd *Command) error {
	room, err := h.memberRoom(s, cmd.Room)
	if err != nil {
		return err
	}
	// Rejections are reported to the submitter by the grid itself.
	if err := room.Grid.SubmitCell(cmd.X, cmd.Y, cmd.Char, s.identity.PlayerID); err != nil {
		h.log.Debug().Err(err).Str("player_id", s.identity.PlayerID).Str("room_id", room.ID).Msg("submission rejected")
	}
	return nil
}

func (h *Hub) handleHistory(s *session, cmd *Command) error {
	room, err := h.findRoom(cmd.Room)
	if err != nil {
		return err
	}
	s.conn.Send(&Event{Kind: EventHistory, Room: room.ID, History: room.Grid.GetHistory()})
	return nil
}

func (h *Hub) handleTimeTravel(_ *session, cmd *Command) error {
	room, err := h.findRoom(cmd.Room)
	if err != nil {
		return err
	}
	room.Grid.RequestTimeTravel(cmd.Timestamp)
	return nil
}

// shutdown closes every live transport when the loop stops.
func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.stopGraceTimer()
		s.conn.Close("server shutting down")
	}
	h.log.Info().Int("sessions", len(h.sessions)).Int("rooms", h.rooms.Len()).Msg("hub stopped")
}
