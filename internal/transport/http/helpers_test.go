package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/gridroom-server/internal/config"
	"github.com/vovakirdan/gridroom-server/internal/core"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	hub := core.NewHub(cfg.HubOptions())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	logger := zerolog.Nop()
	server := NewServer(hub, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	u := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, conn, frame{Type: typ, Data: raw}))
}

// readUntil skips frames until one of type typ arrives and decodes its data into v.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		var f frame
		require.NoError(t, wsjson.Read(ctx, conn, &f), "waiting for %s", typ)
		if f.Type != typ {
			continue
		}
		if v != nil {
			require.NoError(t, json.Unmarshal(f.Data, v))
		}
		return
	}
}
