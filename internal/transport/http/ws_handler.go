package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gridroom-server/internal/auth"
	"github.com/vovakirdan/gridroom-server/internal/core"
	"github.com/vovakirdan/gridroom-server/internal/proto"
	"github.com/vovakirdan/gridroom-server/internal/utils"
)

// WSOptions bounds what a single connection may do.
type WSOptions struct {
	OriginPattern     string
	MaxMessageBytes   int64
	MessagesPerSecond float64
	MessageBurst      int
	EventBuffer       int
}

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub  Hub
	opts WSOptions
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	return &WSHandler{hub: hub, opts: opts, log: logger}
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if h.opts.OriginPattern == "" || h.opts.OriginPattern == "*" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	pattern := h.opts.OriginPattern
	if u, err := url.Parse(pattern); err == nil && u.Host != "" {
		pattern = u.Host
	}
	return &websocket.AcceptOptions{OriginPatterns: []string{pattern}}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	identity, err := auth.Authenticate(r.URL.Query()["token"])
	if err != nil {
		h.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws authentication failed")
		_ = wsjson.Write(r.Context(), conn, proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.Error{Code: core.ErrCodeAuth, Message: err.Error()},
		})
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := newWSConn(utils.NewID(), h.opts.EventBuffer)
	log := h.log.With().Str("conn_id", client.id).Str("player_id", identity.PlayerID).Logger()

	h.hub.Connect(client, identity)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errClosedByServer):
		reason = client.closeReason()
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	client.Close(reason)
	h.hub.Disconnect(client.id, reason)
	conn.Close(status, truncateReason(reason))
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *wsConn, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.opts.MessagesPerSecond, h.opts.MessageBurst)
	for {
		// A malformed frame must not end the connection, so no wsjson.Read here.
		typ, data, err := conn.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("read ws inbound")
			return err
		}
		// Every frame spends a token, malformed ones included.
		if !allow(limiter) {
			log.Debug().Int("bytes", len(data)).Msg("inbound frame rate limited")
			client.push(proto.Outbound{
				Type: proto.OutboundTypeError,
				Data: proto.Error{Code: core.ErrCodeRateLimited, Message: "Too many messages"},
			})
			continue
		}

		var inbound proto.Inbound
		if typ != websocket.MessageText || json.Unmarshal(data, &inbound) != nil {
			client.push(proto.Outbound{Type: proto.OutboundTypeError, Data: badRequest("invalid frame")})
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			log.Debug().Str("type", inbound.Type).Str("reason", protoErr.Message).Msg("invalid inbound frame")
			client.push(proto.Outbound{Type: proto.OutboundTypeError, Data: protoErr})
			continue
		}
		h.hub.Dispatch(client.id, cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsConn, log *zerolog.Logger) error {
	for {
		select {
		case out := <-client.out:
			if err := wsjson.Write(ctx, conn, out); err != nil {
				log.Debug().Err(err).Str("type", out.Type).Msg("write ws event")
				return err
			}
		case <-client.closed:
			return errClosedByServer
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

var errClosedByServer = errors.New("connection closed by server")

// wsConn is the core.Conn side of a WebSocket. Send is called from the hub
// loop and never blocks; the write loop drains out.
type wsConn struct {
	id     string
	out    chan proto.Outbound
	closed chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	reason    string
}

func newWSConn(id string, buffer int) *wsConn {
	return &wsConn{
		id:     id,
		out:    make(chan proto.Outbound, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(event *core.Event) bool {
	return c.push(outboundFromEvent(event))
}

func (c *wsConn) push(out proto.Outbound) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.out <- out:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.closed)
	})
}

func (c *wsConn) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// truncateReason keeps close reasons inside the 123-byte control frame limit.
func truncateReason(reason string) string {
	const limit = 123
	if len(reason) <= limit {
		return reason
	}
	return reason[:limit]
}
