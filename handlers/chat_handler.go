package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/portfolio-chat/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const errInvalidBody = "invalid request body"

type chatRequest struct {
	Message *string `json:"message"`
	UserID  string  `json:"userId"`
}

type chatResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ChatHandler serves the chat widget.
type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat answers one message.
// POST /chat
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil || req.Message == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBody})
	}

	turn, err := h.chat.Reply(c.Request().Context(), req.UserID, *req.Message)
	switch {
	case errors.Is(err, services.ErrMessageTooLong):
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		logger.Error("Chat turn failed", zap.String("userId", req.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}

	if turn.Failed {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: turn.Reply})
	}

	return c.JSON(http.StatusOK, chatResponse{Text: turn.Reply})
}

// Stats reports live session count. Liveness is served by the boot server on /health.
// GET /chat/stats
func (h *ChatHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"sessions": h.chat.Sessions(),
	})
}
