package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatboard/chatboard-server/internal/chat"
	"github.com/chatboard/chatboard-server/internal/codec"
	"github.com/chatboard/chatboard-server/internal/store"
)

// ChatHandlers provides HTTP handlers for the room history endpoints.
type ChatHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(st store.Store, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		store: st,
		log:   logger,
	}
}

// PostMessageRequest represents the post message payload, accepted either as
// form fields or as a JSON body.
type PostMessageRequest struct {
	Username string `form:"username" json:"username"`
	Msg      string `form:"msg" json:"msg"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHistory renders a room's history as newline-terminated encoded lines.
// An unwritten room is an empty body, not an error.
// GET /api/chat/:room
func (h *ChatHandlers) GetHistory(c *gin.Context) {
	room := c.Param("room")

	msgs, err := h.store.History(c.Request.Context(), room)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRoom) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room"})
			return
		}
		h.log.Error().Err(err).Str("room", room).Msg("failed to read room history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(codec.Encode(msg))
		b.WriteByte('\n')
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}

// PostMessage appends one message to a room. Missing username or msg fields
// are filled with defaults by the store; the response body is empty.
// POST /api/chat/:room
func (h *ChatHandlers) PostMessage(c *gin.Context) {
	room := c.Param("room")

	var req PostMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		h.log.Debug().Err(err).Str("room", room).Msg("unparseable post payload, using defaults")
	}

	msg, err := h.store.Append(c.Request.Context(), room, req.Username, req.Msg)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRoom) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room"})
			return
		}
		h.log.Error().Err(err).Str("room", room).Msg("failed to append message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Str("room", room).Str("username", msg.Username).Msg("message appended")
	c.Status(http.StatusNoContent)
}
