package query

import (
	"context"
	"fmt"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Answers /leaderboard: the top monthly totals. Cache-first when a cache is
// configured; any cache failure falls through to the repository.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit caps the /leaderboard reply.
const DefaultLeaderboardLimit = 10

// MaxLeaderboardLimit is the hard upper bound a caller may request.
const MaxLeaderboardLimit = 50

// GetLeaderboardQuery selects the ranking window and size.
type GetLeaderboardQuery struct {
	// Window selects weekly or monthly totals; empty means monthly.
	Window leaderboard.Window

	// Limit caps the row count; 0 means DefaultLeaderboardLimit.
	Limit int
}

// Validate checks the query parameters.
func (q GetLeaderboardQuery) Validate() error {
	switch q.Window {
	case "", leaderboard.WindowWeekly, leaderboard.WindowMonthly:
	default:
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput,
			fmt.Sprintf("unknown window %q", q.Window))
	}
	if q.Limit < 0 || q.Limit > MaxLeaderboardLimit {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput,
			fmt.Sprintf("limit must be between 0 and %d", MaxLeaderboardLimit))
	}
	return nil
}

func (q GetLeaderboardQuery) window() leaderboard.Window {
	if q.Window == "" {
		return leaderboard.WindowMonthly
	}
	return q.Window
}

func (q GetLeaderboardQuery) limit() int {
	if q.Limit == 0 {
		return DefaultLeaderboardLimit
	}
	return q.Limit
}

// LeaderboardResult carries the ranked rows.
type LeaderboardResult struct {
	Window leaderboard.Window
	Rows   []leaderboard.Row

	// FromCache marks a cache hit, for logging only.
	FromCache bool
}

// GetLeaderboardHandler handles the leaderboard query.
type GetLeaderboardHandler struct {
	repo     ledger.Repository
	cache    leaderboard.Cache
	cacheTTL time.Duration
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// The cache may be nil; cacheTTL <= 0 disables write-back.
func NewGetLeaderboardHandler(repo ledger.Repository, cache leaderboard.Cache, cacheTTL time.Duration) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	window := q.window()
	limit := q.limit()

	// Only the monthly board is cached; it is the one users hammer.
	if h.cache != nil && window == leaderboard.WindowMonthly {
		if rows, err := h.cache.GetTop(ctx, limit); err == nil {
			return &LeaderboardResult{Window: window, Rows: rows, FromCache: true}, nil
		}
	}

	totals, err := h.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: load totals: %w", err)
	}

	ranked := leaderboard.RankTotals(totals, window)

	if h.cache != nil && window == leaderboard.WindowMonthly && h.cacheTTL > 0 {
		// Store the full ranking: GetTop truncates per caller, so the first
		// caller's limit must not shrink what later callers see.
		// Best effort; a cache outage must not break the query.
		_ = h.cache.SetTop(ctx, ranked, h.cacheTTL)
	}

	return &LeaderboardResult{Window: window, Rows: leaderboard.Top(ranked, limit)}, nil
}
