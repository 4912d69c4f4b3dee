package handler

import (
	"context"
	"strconv"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE HANDLER
// Handles /score - shows the caller's today / weekly / monthly points.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreHandler handles the /score command.
type ScoreHandler struct {
	summaryQuery *query.GetScoreSummaryHandler
	scores       *presenter.ScorePresenter
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(summaryQuery *query.GetScoreSummaryHandler, scores *presenter.ScorePresenter) *ScoreHandler {
	return &ScoreHandler{summaryQuery: summaryQuery, scores: scores}
}

// ScoreRequest contains the parsed /score command data.
type ScoreRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64
}

// Handle processes the /score command.
func (h *ScoreHandler) Handle(ctx context.Context, req ScoreRequest) (*Response, error) {
	summary, err := h.summaryQuery.Handle(ctx, query.GetScoreSummaryQuery{
		UserID: strconv.FormatInt(req.UserID, 10),
	})
	if err != nil {
		return &Response{Text: presenter.GenericError()}, err
	}

	return &Response{Text: h.scores.Summary(summary)}, nil
}
