package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/core"
)

// PrivateMessageHandlers provides HTTP handlers for conversation history.
type PrivateMessageHandlers struct {
	pager *core.Pager
	log   *zerolog.Logger
}

// NewPrivateMessageHandlers creates a new private message handlers instance.
func NewPrivateMessageHandlers(pager *core.Pager, logger *zerolog.Logger) *PrivateMessageHandlers {
	return &PrivateMessageHandlers{
		pager: pager,
		log:   logger,
	}
}

// PrivateMessageResponse represents a private message in API responses.
type PrivateMessageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// GetConversation returns the full exchange between two users, ascending
// by timestamp. Either party sees the identical sequence.
// GET /api/v1/messages/:sender/:receiver
func (h *PrivateMessageHandlers) GetConversation(c *gin.Context) {
	sender := c.Param("sender")
	receiver := c.Param("receiver")

	messages, err := h.pager.Conversation(c.Request.Context(), sender, receiver)
	if err != nil {
		h.log.Error().Err(err).Str("sender", sender).Str("receiver", receiver).Msg("failed to load conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]PrivateMessageResponse, 0, len(messages))
	for _, pm := range messages {
		response = append(response, PrivateMessageResponse{
			ID:        pm.ID,
			Sender:    pm.Sender,
			Receiver:  pm.Receiver,
			Content:   pm.Content,
			Timestamp: pm.Timestamp.Format(time.RFC3339Nano),
		})
	}

	c.JSON(http.StatusOK, response)
}
