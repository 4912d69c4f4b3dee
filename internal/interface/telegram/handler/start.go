// Package handler contains Telegram command handlers. Each handler parses its
// command, calls the application layer, and formats a reply through the
// presenters; it never talks to the Telegram API directly.
package handler

import (
	"context"

	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// Response is a handler's reply, sent back to the originating chat.
type Response struct {
	// Text is the message text.
	Text string
}

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start and /help - greets the member and lists the commands.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start and /help commands.
type StartHandler struct{}

// NewStartHandler creates a new StartHandler.
func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64

	// DisplayName is the user's name for the greeting.
	DisplayName string
}

// Handle processes the /start command.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*Response, error) {
	return &Response{Text: presenter.Welcome(req.DisplayName)}, nil
}
