package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoomHandlers provides HTTP handlers for room allocation and introspection.
type RoomHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// StartRoomRequest represents the start room request body.
type StartRoomRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// StartRoomResponse carries the allocated room id.
type StartRoomResponse struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

// StatsResponse is a snapshot of hub counters.
type StatsResponse struct {
	Rooms    int `json:"rooms"`
	Sessions int `json:"sessions"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartRoom picks an under-capacity room or creates one.
// POST /api/v1/room/start-room
func (h *RoomHandlers) StartRoom(c *gin.Context) {
	var req StartRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid start room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields: userId or name"})
		return
	}

	roomID, err := h.hub.StartRoom(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to start room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start room"})
		return
	}

	h.log.Info().Str("room_id", roomID).Str("user_id", req.UserID).Msg("room allocated")
	c.JSON(http.StatusCreated, StartRoomResponse{
		Message: "Room started successfully",
		RoomID:  roomID,
	})
}

// Stats reports live room and session counts.
// GET /api/v1/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	st, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Rooms: st.Rooms, Sessions: st.Sessions})
}
