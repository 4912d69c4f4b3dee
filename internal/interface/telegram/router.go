// Package telegram implements the Telegram Bot interface for Hamdars Study
// Hub: routing updates to command handlers and managing the bot lifecycle.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/external/telegram"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// CommandContext carries the parsed update through routing.
type CommandContext struct {
	// UserID is the sender's Telegram ID.
	UserID int64

	// ChatID is the chat the command was sent in.
	ChatID int64

	// MessageID is the ID of the message containing the command.
	MessageID int64

	// DisplayName is the sender's full name.
	DisplayName string

	// Args is the text after the command.
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes commands to their handlers. Replies are returned to the bot, which
// owns the client; handlers never send messages themselves.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram commands to handlers.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	handlersMu sync.RWMutex
	handlers   map[string]interface{}

	defaultHandler func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error)
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	r := &Router{
		config:   config,
		logger:   config.Logger,
		handlers: make(map[string]interface{}),
	}
	r.defaultHandler = r.handleUnknownCommand
	return r
}

// RegisterCommand registers a handler for a command (without the leading "/").
func (r *Router) RegisterCommand(command string, h interface{}) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()

	r.handlers[command] = h

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// SetDefaultHandler sets the handler for unknown commands.
func (r *Router) SetDefaultHandler(h func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error)) {
	r.defaultHandler = h
}

// HandleCommand routes a command to its handler and returns the reply.
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) (*handler.Response, error) {
	r.handlersMu.RLock()
	h, ok := r.handlers[command]
	r.handlersMu.RUnlock()

	if !ok {
		if r.config.Debug {
			r.logger.Debug("no handler for command", "command", command)
		}
		return r.defaultHandler(ctx, cmdCtx)
	}

	return r.executeHandler(ctx, h, command, cmdCtx)
}

// executeHandler dispatches on the handler's concrete type, building its
// typed request from the command context.
func (r *Router) executeHandler(ctx context.Context, h interface{}, command string, cmdCtx CommandContext) (*handler.Response, error) {
	switch hd := h.(type) {
	case *handler.StartHandler:
		return hd.Handle(ctx, handler.StartRequest{
			UserID:      cmdCtx.UserID,
			DisplayName: cmdCtx.DisplayName,
		})
	case *handler.StudyHandler:
		return hd.Handle(ctx, handler.StudyRequest{
			UserID:      cmdCtx.UserID,
			DisplayName: cmdCtx.DisplayName,
			Args:        cmdCtx.Args,
		})
	case *handler.TestHandler:
		return hd.Handle(ctx, handler.TestRequest{
			UserID:      cmdCtx.UserID,
			DisplayName: cmdCtx.DisplayName,
			Args:        cmdCtx.Args,
		})
	case *handler.ReportHandler:
		return hd.Handle(ctx, handler.ReportRequest{
			UserID:      cmdCtx.UserID,
			DisplayName: cmdCtx.DisplayName,
		})
	case *handler.ScoreHandler:
		return hd.Handle(ctx, handler.ScoreRequest{
			UserID: cmdCtx.UserID,
		})
	case *handler.TopHandler:
		return hd.Handle(ctx, handler.TopRequest{
			UserID: cmdCtx.UserID,
			Args:   cmdCtx.Args,
		})
	case *handler.RollupHandler:
		return hd.Handle(ctx, handler.RollupRequest{
			UserID: cmdCtx.UserID,
			Args:   cmdCtx.Args,
		})
	default:
		r.logger.Warn("unknown handler type", "command", command, "type", fmt.Sprintf("%T", h))
		return r.defaultHandler(ctx, cmdCtx)
	}
}

// handleUnknownCommand is the default for unregistered commands. Group chats
// stay quiet; members get a hint in private.
func (r *Router) handleUnknownCommand(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
	if !telegram.IsPrivateChat(cmdCtx.Message) {
		return nil, nil
	}
	return &handler.Response{
		Text: "🤔 این دستور را نمی‌شناسم. با /help لیست دستورها را ببین.",
	}, nil
}
