package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/core"
	"github.com/parley-chat/parley-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management and history.
type RoomHandlers struct {
	registry        *core.Registry
	pager           *core.Pager
	defaultPageSize int
	log             *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, pager *core.Pager, defaultPageSize int, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry:        registry,
		pager:           pager,
		defaultPageSize: defaultPageSize,
		log:             logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	RoomID string `json:"roomId" binding:"required,min=1,max=64"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	RoomID    string `json:"roomId"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// MessageResponse represents a room message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Kind      string `json:"messageType"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func messageResponse(msg store.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		Kind:      msg.Kind,
		Timestamp: msg.Timestamp.Format(time.RFC3339Nano),
	}
}

// CreateRoom handles room creation.
// POST /api/v1/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.registry.CreateRoom(c.Request.Context(), req.RoomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomExists) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room already exists"})
			return
		}
		h.log.Error().Err(err).Str("room", req.RoomID).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, RoomResponse{
		RoomID:    room.ID,
		CreatedAt: room.CreatedAt.Format(time.RFC3339Nano),
	})
}

// JoinRoom returns a room snapshot for clients about to subscribe.
// GET /api/v1/rooms/:roomId
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	room, err := h.registry.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		RoomID:    room.ID,
		CreatedAt: room.CreatedAt.Format(time.RFC3339Nano),
	})
}

// GetMessages returns one reverse-chronological page of a room's history.
// GET /api/v1/rooms/:roomId/messages?page=0&size=20
func (h *RoomHandlers) GetMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(h.defaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid size"})
		return
	}

	messages, err := h.pager.RoomPage(c.Request.Context(), roomID, page, size)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			// Unknown room is a client error, not an empty history.
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room not found"})
		case errors.Is(err, core.ErrInvalidPage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pagination parameters"})
		default:
			h.log.Error().Err(err).Str("room", roomID).Msg("failed to page room history")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, messageResponse(msg))
	}

	c.JSON(http.StatusOK, response)
}
