package http

import (
	"encoding/json"

	"github.com/rivo/uniseg"

	"github.com/vovakirdan/gridroom-server/internal/core"
	"github.com/vovakirdan/gridroom-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Message: msg}
}

// inboundToCommand validates a client frame. A non-nil proto.Error is sent
// back to the client; the connection stays open.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom, proto.InboundTypeGetHistory:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badRequest("invalid payload")
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		kind := core.CommandJoinRoom
		switch inbound.Type {
		case proto.InboundTypeLeaveRoom:
			kind = core.CommandLeaveRoom
		case proto.InboundTypeGetHistory:
			kind = core.CommandGetHistory
		}
		return &core.Command{Kind: kind, Room: data.RoomID}, nil

	case proto.InboundTypeSubmit:
		var data proto.SubmitData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badRequest("invalid payload")
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		if data.X == nil || data.Y == nil {
			return nil, badRequest("x and y are required")
		}
		// One user-perceived character, or "" to clear the cell.
		if uniseg.GraphemeClusterCount(data.Char) > 1 {
			return nil, badRequest("char must be a single character")
		}
		return &core.Command{
			Kind: core.CommandSubmitCell,
			Room: data.RoomID,
			X:    *data.X,
			Y:    *data.Y,
			Char: data.Char,
		}, nil

	case proto.InboundTypeTimeTravel:
		var data proto.TimeTravelData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badRequest("invalid payload")
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		if data.Timestamp == nil {
			return nil, badRequest("timestamp is required")
		}
		return &core.Command{
			Kind:      core.CommandTimeTravel,
			Room:      data.RoomID,
			Timestamp: *data.Timestamp,
		}, nil

	default:
		return nil, badRequest("unknown message type")
	}
}

func playerFromCore(p core.Player) proto.Player {
	return proto.Player{UserID: p.PlayerID, Name: p.Name, ConnectionID: p.ConnID}
}

func playersFromCore(players []core.Player) []proto.Player {
	out := make([]proto.Player, 0, len(players))
	for _, p := range players {
		out = append(out, playerFromCore(p))
	}
	return out
}

func updatesFromCore(updates []core.CellUpdate) []proto.CellUpdate {
	out := make([]proto.CellUpdate, 0, len(updates))
	for _, u := range updates {
		out = append(out, cellUpdateFromCore(u))
	}
	return out
}

func cellUpdateFromCore(u core.CellUpdate) proto.CellUpdate {
	return proto.CellUpdate{X: u.X, Y: u.Y, Char: u.Char, PlayerID: u.PlayerID, Timestamp: u.Timestamp}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: event.Kind.String()}

	switch event.Kind {
	case core.EventConnected, core.EventReconnected:
		session := proto.Session{Message: event.Message}
		if event.Player != nil {
			session.Name = event.Player.Name
			session.UserID = event.Player.PlayerID
			session.ConnectionID = event.Player.ConnID
		}
		out.Data = session
	case core.EventRoomState:
		state := proto.RoomState{RoomID: event.Room, Players: playersFromCore(event.Players)}
		if event.State != nil {
			state.GameState = proto.GameState{
				Grid:      event.State.Grid,
				History:   updatesFromCore(event.State.History),
				Timestamp: event.State.Timestamp,
			}
		}
		out.Data = state
	case core.EventLeftRoom, core.EventRestrictionDisabled:
		out.Data = proto.Notice{Message: event.Message}
	case core.EventCellSubmitted:
		if event.Update != nil {
			out.Data = cellUpdateFromCore(*event.Update)
		}
	case core.EventRestrictionActive:
		out.Data = proto.Restriction{Message: event.Message, Remaining: event.Remaining}
	case core.EventPlayerJoined:
		if event.Player != nil {
			out.Data = proto.PlayerJoined{Player: playerFromCore(*event.Player), IsReconnect: event.IsReconnect}
		}
	case core.EventPlayerLeft, core.EventPlayerReconnected:
		if event.Player != nil {
			p := playerFromCore(*event.Player)
			p.ConnectionID = ""
			out.Data = p
		}
	case core.EventRoomUpdate:
		out.Data = proto.RoomUpdate{Count: len(event.Players), Players: playersFromCore(event.Players)}
	case core.EventTimeTravel:
		out.Data = proto.TimeTravelUpdate{Grid: event.Grid, Timestamp: event.Timestamp}
	case core.EventHistory:
		out.Data = updatesFromCore(event.History)
	case core.EventError:
		if event.Error == nil {
			out.Data = proto.Error{Code: core.ErrCodeInternal, Message: "unknown error"}
		} else {
			out.Data = proto.Error{Code: event.Error.Code, Message: event.Error.Message}
		}
	}
	return out
}
