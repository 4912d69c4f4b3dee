package handler

import (
	"context"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP HANDLER
// Handles /top - shows the monthly leaderboard. "/top week" switches to the
// weekly window.
// ══════════════════════════════════════════════════════════════════════════════

// topLimit is how many rows /top shows.
const topLimit = 20

// TopHandler handles the /top command.
type TopHandler struct {
	leaderboardQuery *query.GetLeaderboardHandler
	boards           *presenter.LeaderboardPresenter
}

// NewTopHandler creates a new TopHandler.
func NewTopHandler(leaderboardQuery *query.GetLeaderboardHandler, boards *presenter.LeaderboardPresenter) *TopHandler {
	return &TopHandler{leaderboardQuery: leaderboardQuery, boards: boards}
}

// TopRequest contains the parsed /top command data.
type TopRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64

	// Args is the raw argument string after the command.
	Args string
}

// Handle processes the /top command.
func (h *TopHandler) Handle(ctx context.Context, req TopRequest) (*Response, error) {
	window := leaderboard.WindowMonthly
	switch strings.ToLower(strings.TrimSpace(req.Args)) {
	case "week", "weekly", "هفته":
		window = leaderboard.WindowWeekly
	}

	result, err := h.leaderboardQuery.Handle(ctx, query.GetLeaderboardQuery{
		Window: window,
		Limit:  topLimit,
	})
	if err != nil {
		return &Response{Text: h.boards.Unavailable()}, err
	}

	return &Response{Text: h.boards.Top(window, result.Rows)}, nil
}
