// Package query contains read operations following the CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCORE SUMMARY QUERY
// Answers /score: the caller's points for today and their monthly running total.
// ══════════════════════════════════════════════════════════════════════════════

// GetScoreSummaryQuery identifies the participant.
type GetScoreSummaryQuery struct {
	UserID string
}

// Validate checks the query parameters.
func (q GetScoreSummaryQuery) Validate() error {
	if !ledger.UserID(q.UserID).IsValid() {
		return shared.NewDomainError("query", "GetScoreSummary", shared.ErrInvalidID, "invalid user id")
	}
	return nil
}

// ScoreSummary is the /score projection.
type ScoreSummary struct {
	// Registered is false for users who have never reported anything.
	Registered bool

	// DisplayName is the last-seen name (empty when not registered).
	DisplayName string

	// Date is today's date key.
	Date string

	// TodayPoints is the derived score for today (0 without an entry).
	TodayPoints int

	// WeeklyTotal and MonthlyTotal are the rolling windows.
	WeeklyTotal  int
	MonthlyTotal int
}

// GetScoreSummaryHandler handles the score summary query.
type GetScoreSummaryHandler struct {
	repo ledger.Repository
	now  func() time.Time
}

// NewGetScoreSummaryHandler creates a new GetScoreSummaryHandler.
func NewGetScoreSummaryHandler(repo ledger.Repository, now func() time.Time) *GetScoreSummaryHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &GetScoreSummaryHandler{repo: repo, now: now}
}

// Handle executes the score summary query.
func (h *GetScoreSummaryHandler) Handle(ctx context.Context, q GetScoreSummaryQuery) (*ScoreSummary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	today := timeutil.DateKey(h.now())
	summary := &ScoreSummary{Date: today}

	rec, err := h.repo.GetUser(ctx, ledger.UserID(q.UserID))
	if errors.Is(err, ledger.ErrUserNotFound) {
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_score_summary: load user: %w", err)
	}

	summary.Registered = true
	summary.DisplayName = rec.DisplayName
	summary.WeeklyTotal = rec.WeeklyTotal
	summary.MonthlyTotal = rec.MonthlyTotal

	entry, err := h.repo.GetEntry(ctx, rec.ID, today)
	if err == nil {
		summary.TodayPoints = entry.Points
	} else if !errors.Is(err, ledger.ErrEntryNotFound) {
		return nil, fmt.Errorf("get_score_summary: load entry: %w", err)
	}

	return summary, nil
}
