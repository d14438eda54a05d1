package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/gridroom-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8000", "server base URL")
	user := flag.String("user", "smoke-tester", "userId to assert in the handshake")
	name := flag.String("name", "Smoke Tester", "display name")
	x := flag.Int("x", 0, "cell row")
	y := flag.Int("y", 0, "cell column")
	char := flag.String("char", "#", "character to write")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	roomID, err := startRoom(ctx, *base, *user, *name)
	if err != nil {
		return err
	}
	fmt.Printf("Allocated room %s\n", roomID)

	token, err := json.Marshal(map[string]string{"userId": *user, "name": *name})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	wsURL, err := url.Parse(*base)
	if err != nil {
		return fmt.Errorf("parse base: %w", err)
	}
	if wsURL.Scheme == "https" {
		wsURL.Scheme = "wss"
	} else {
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"
	wsURL.RawQuery = url.Values{"token": {string(token)}}.Encode()

	conn, _, err := websocket.Dial(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := mustSend(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: roomID}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received %s: %s\n", outbound.Type, string(outbound.Data))

		switch outbound.Type {
		case "room-state":
			if err := mustSend(proto.InboundTypeSubmit, proto.SubmitData{X: x, Y: y, Char: *char, RoomID: roomID}); err != nil {
				return err
			}
		case "cell-submitted":
			var update proto.CellUpdate
			if err := json.Unmarshal(outbound.Data, &update); err != nil {
				return fmt.Errorf("unmarshal cell update: %w", err)
			}
			fmt.Printf("Cell (%d,%d) = %q by %s at %d\n", update.X, update.Y, update.Char, update.PlayerID, update.Timestamp)
			return nil
		case proto.OutboundTypeError:
			return fmt.Errorf("server error: %s", string(outbound.Data))
		}
	}
}

func startRoom(ctx context.Context, base, user, name string) (string, error) {
	body, err := json.Marshal(map[string]string{"userId": user, "name": name})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v1/room/start-room", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("start room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("start room: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode start room: %w", err)
	}
	return out.RoomID, nil
}
