package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerAnnouncesToOthers(t *testing.T) {
	dir, _, _ := newTestDirectory()
	room := dir.CreateRoom()
	alice := newTestConn("c-alice")
	bob := newTestConn("c-bob")

	assert.False(t, room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, alice))
	drain(alice)
	assert.False(t, room.Members.AddPlayer(Identity{PlayerID: "bob", Name: "Bob"}, bob))

	joined := mustEvent(t, alice, EventPlayerJoined)
	require.NotNil(t, joined.Player)
	assert.Equal(t, "bob", joined.Player.PlayerID)
	assert.False(t, joined.IsReconnect)

	update := mustEvent(t, alice, EventRoomUpdate)
	require.Len(t, update.Players, 2)
	assert.Equal(t, "alice", update.Players[0].PlayerID)
	assert.Equal(t, "bob", update.Players[1].PlayerID)

	assert.Zero(t, countKind(drain(bob), EventPlayerJoined), "joiner is not told about itself")
}

func TestAddPlayerRejoinKeepsSingleEntry(t *testing.T) {
	dir, _, _ := newTestDirectory()
	room := dir.CreateRoom()
	first := newTestConn("c-1")
	second := newTestConn("c-2")
	bob := newTestConn("c-bob")

	room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, first)
	room.Members.AddPlayer(Identity{PlayerID: "bob", Name: "Bob"}, bob)
	drain(bob)

	assert.True(t, room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, second))

	assert.Equal(t, 2, room.Members.Count())
	p, ok := room.Members.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c-2", p.ConnID)

	joined := mustEvent(t, bob, EventPlayerJoined)
	assert.True(t, joined.IsReconnect)

	drain(first)
	drain(second)
	room.Broadcast(&Event{Kind: EventRoomUpdate})
	assert.Empty(t, drain(first), "old connection no longer receives room broadcasts")
	assert.Len(t, drain(second), 1)
}

func TestRemovePlayerEmitsSingleLeave(t *testing.T) {
	dir, _, _ := newTestDirectory()
	room := dir.CreateRoom()
	alice := newTestConn("c-alice")
	bob := newTestConn("c-bob")
	room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, alice)
	room.Members.AddPlayer(Identity{PlayerID: "bob", Name: "Bob"}, bob)
	drain(alice)
	drain(bob)

	require.True(t, room.Members.RemovePlayer("alice"))
	assert.False(t, room.Members.RemovePlayer("alice"))

	events := drain(bob)
	assert.Equal(t, 1, countKind(events, EventPlayerLeft))
	assert.Equal(t, 1, countKind(events, EventRoomUpdate))
	assert.Empty(t, drain(alice))

	assert.False(t, room.Members.Has("alice"))
	assert.Equal(t, []Player{{Identity: Identity{PlayerID: "bob", Name: "Bob"}, ConnID: "c-bob"}}, room.Members.Roster())
}

func TestUpdateConnectionIDIsSilent(t *testing.T) {
	dir, _, _ := newTestDirectory()
	room := dir.CreateRoom()
	old := newTestConn("c-old")
	fresh := newTestConn("c-new")
	bob := newTestConn("c-bob")
	room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, old)
	room.Members.AddPlayer(Identity{PlayerID: "bob", Name: "Bob"}, bob)
	drain(bob)

	require.True(t, room.Members.UpdateConnectionID("alice", fresh))
	assert.False(t, room.Members.UpdateConnectionID("carol", fresh))

	assert.Empty(t, drain(bob))
	p, ok := room.Members.LookupByConn("c-new")
	require.True(t, ok)
	assert.Equal(t, "alice", p.PlayerID)
	_, ok = room.Members.LookupByConn("c-old")
	assert.False(t, ok)

	assert.True(t, room.SendToPlayer("alice", &Event{Kind: EventHistory}))
	mustEvent(t, fresh, EventHistory)
}

func TestLastLeaveClosesRoom(t *testing.T) {
	dir, _, _ := newTestDirectory()
	room := dir.CreateRoom()
	alice := newTestConn("c-alice")
	room.Members.AddPlayer(Identity{PlayerID: "alice", Name: "Alice"}, alice)

	room.Members.RemovePlayer("alice")

	assert.Nil(t, dir.FindRoomByID(room.ID))
	assert.Zero(t, dir.Len())
}
