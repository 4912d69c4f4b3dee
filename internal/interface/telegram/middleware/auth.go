// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN GATE
// Privileged commands (manual rollups) require group-admin status. The check
// goes to the Telegram API; a failed lookup is reported as CheckFailed, never
// silently treated as "not an admin".
// ══════════════════════════════════════════════════════════════════════════════

// ChatMemberLookup resolves a user's membership in a chat.
// *telegram.Client satisfies it.
type ChatMemberLookup interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
}

// AdminGateConfig contains configuration for the admin gate.
type AdminGateConfig struct {
	// GroupChatID is the chat whose admin list is authoritative.
	GroupChatID int64

	// CacheTTL is how long a positive or negative verdict is remembered.
	// Failed lookups are never cached.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultAdminGateConfig returns sensible defaults.
func DefaultAdminGateConfig(groupChatID int64) AdminGateConfig {
	return AdminGateConfig{
		GroupChatID: groupChatID,
		CacheTTL:    5 * time.Minute,
	}
}

// AdminGate checks group-admin status with a short-lived verdict cache.
type AdminGate struct {
	config AdminGateConfig
	lookup ChatMemberLookup
	logger *slog.Logger

	mu       sync.Mutex
	verdicts map[int64]adminVerdict
}

type adminVerdict struct {
	isAdmin   bool
	expiresAt time.Time
}

// NewAdminGate creates a new AdminGate.
func NewAdminGate(lookup ChatMemberLookup, config AdminGateConfig) *AdminGate {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &AdminGate{
		config:   config,
		lookup:   lookup,
		logger:   config.Logger,
		verdicts: make(map[int64]adminVerdict),
	}
}

// Check returns the authorization outcome for a user.
func (g *AdminGate) Check(ctx context.Context, userID int64) shared.AuthzResult {
	g.mu.Lock()
	if v, ok := g.verdicts[userID]; ok && time.Now().Before(v.expiresAt) {
		g.mu.Unlock()
		if v.isAdmin {
			return shared.AuthzResult{Status: shared.Authorized}
		}
		return shared.AuthzResult{Status: shared.Unauthorized}
	}
	g.mu.Unlock()

	member, err := g.lookup.GetChatMember(ctx, g.config.GroupChatID, userID)
	if err != nil {
		g.logger.Warn("admin check failed", "user_id", userID, "error", err)
		return shared.AuthzResult{
			Status: shared.CheckFailed,
			Err:    fmt.Errorf("admin check: %w", err),
		}
	}

	isAdmin := member.IsAdmin()
	g.mu.Lock()
	g.verdicts[userID] = adminVerdict{
		isAdmin:   isAdmin,
		expiresAt: time.Now().Add(g.config.CacheTTL),
	}
	g.mu.Unlock()

	if isAdmin {
		return shared.AuthzResult{Status: shared.Authorized}
	}
	return shared.AuthzResult{Status: shared.Unauthorized}
}

// Invalidate drops the cached verdict for a user.
func (g *AdminGate) Invalidate(userID int64) {
	g.mu.Lock()
	delete(g.verdicts, userID)
	g.mu.Unlock()
}
