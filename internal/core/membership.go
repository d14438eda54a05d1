package core

// Membership is the per-room roster: one entry per player id.
type Membership struct {
	room    *Room
	players map[string]*Player
	order   []string
	onEmpty func()
}

func newMembership(room *Room, onEmpty func()) *Membership {
	return &Membership{
		room:    room,
		players: make(map[string]*Player),
		onEmpty: onEmpty,
	}
}

// AddPlayer inserts a roster entry, or repoints an existing one at conn when
// the player is already present. It binds conn to room broadcasts and tells
// the rest of the room. Returns true when the call was a rejoin.
func (m *Membership) AddPlayer(id Identity, conn Conn) bool {
	p, rejoin := m.players[id.PlayerID]
	if rejoin {
		if p.ConnID != conn.ID() {
			m.room.Unsubscribe(p.ConnID)
		}
		p.ConnID = conn.ID()
		p.Name = id.Name
	} else {
		p = &Player{Identity: id, ConnID: conn.ID()}
		m.players[id.PlayerID] = p
		m.order = append(m.order, id.PlayerID)
	}
	m.room.Subscribe(conn)

	joined := *p
	m.room.BroadcastExcept(conn.ID(), &Event{
		Kind:        EventPlayerJoined,
		Player:      &joined,
		IsReconnect: rejoin,
	})
	m.broadcastRoster()

	m.room.log.Info().
		Str("player_id", id.PlayerID).
		Str("conn_id", conn.ID()).
		Bool("rejoin", rejoin).
		Msg("player joined room")
	return rejoin
}

// RemovePlayer drops the roster entry, unbinds its connection and tells the
// rest of the room. An empty roster closes the room.
func (m *Membership) RemovePlayer(playerID string) bool {
	p, ok := m.players[playerID]
	if !ok {
		return false
	}
	delete(m.players, playerID)
	for i, id := range m.order {
		if id == playerID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.room.Unsubscribe(p.ConnID)

	left := *p
	m.room.Broadcast(&Event{Kind: EventPlayerLeft, Player: &left})
	m.broadcastRoster()

	m.room.log.Info().Str("player_id", playerID).Str("conn_id", p.ConnID).Msg("player left room")

	if len(m.players) == 0 && m.onEmpty != nil {
		m.onEmpty()
	}
	return true
}

// UpdateConnectionID repoints a roster entry at a replacement connection
// without any join or leave side effects.
func (m *Membership) UpdateConnectionID(playerID string, conn Conn) bool {
	p, ok := m.players[playerID]
	if !ok {
		return false
	}
	if p.ConnID != conn.ID() {
		m.room.Unsubscribe(p.ConnID)
		p.ConnID = conn.ID()
	}
	m.room.Subscribe(conn)
	return true
}

// Count returns the number of players online in the room.
func (m *Membership) Count() int {
	return len(m.players)
}

// Roster returns a snapshot of the roster in join order.
func (m *Membership) Roster() []Player {
	out := make([]Player, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.players[id])
	}
	return out
}

// Has reports whether the player has a roster entry.
func (m *Membership) Has(playerID string) bool {
	_, ok := m.players[playerID]
	return ok
}

// Lookup finds a roster entry by player id.
func (m *Membership) Lookup(playerID string) (Player, bool) {
	p, ok := m.players[playerID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// LookupByConn finds a roster entry by connection id.
func (m *Membership) LookupByConn(connID string) (Player, bool) {
	for _, p := range m.players {
		if p.ConnID == connID {
			return *p, true
		}
	}
	return Player{}, false
}

func (m *Membership) broadcastRoster() {
	m.room.Broadcast(&Event{Kind: EventRoomUpdate, Players: m.Roster()})
}
