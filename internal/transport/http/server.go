package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gridroom-server/internal/config"
	"github.com/vovakirdan/gridroom-server/internal/core"
)

// Hub is the slice of the session registry the transport talks to.
type Hub interface {
	Connect(conn core.Conn, id core.Identity)
	Disconnect(connID, reason string)
	Dispatch(connID string, cmd *core.Command)
	StartRoom(ctx context.Context) (string, error)
	Stats(ctx context.Context) (core.Stats, error)
}

// NewServer builds the HTTP server. The WebSocket endpoint lives on a plain
// mux beside gin: gin's response writer refuses the hijack after Accept has
// written the 101.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORSOrigin))

	router.GET("/", okHandler)
	router.GET("/health", okHandler)

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api/v1")
	{
		api.POST("/room/start-room", rooms.StartRoom)
		api.GET("/stats", rooms.Stats)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, WSOptions{
		OriginPattern:     cfg.CORSOrigin,
		MaxMessageBytes:   cfg.MaxMessageBytes,
		MessagesPerSecond: cfg.MessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
		EventBuffer:       cfg.EventBuffer,
	}, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func okHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "OK")
}
