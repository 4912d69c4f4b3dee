package query_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/memory"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

func sept1Noon() time.Time {
	return timeutil.DateTime(2025, 9, 1, 12, 0, 0)
}

func seed(t *testing.T, repo *memory.LedgerRepository, id, name string, seen time.Time, date string, points int) {
	t.Helper()

	rec, err := repo.GetUser(context.Background(), ledger.UserID(id))
	if err != nil {
		rec, err = ledger.NewUserRecord(ledger.UserID(id), name, seen)
		require.NoError(t, err)
	}
	rec.ApplyDelta(points, seen)
	require.NoError(t, repo.SaveActivity(context.Background(), rec, date, &ledger.DailyEntry{Points: points}))
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

func TestGetScoreSummary(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seen := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seed(t, repo, "42", "Sara", seen, "2025-08-31", 20)
	seed(t, repo, "42", "Sara", seen, "2025-09-01", 35)

	h := query.NewGetScoreSummaryHandler(repo, sept1Noon)

	sum, err := h.Handle(context.Background(), query.GetScoreSummaryQuery{UserID: "42"})
	require.NoError(t, err)

	assert.True(t, sum.Registered)
	assert.Equal(t, "Sara", sum.DisplayName)
	assert.Equal(t, "2025-09-01", sum.Date)
	assert.Equal(t, 35, sum.TodayPoints)
	assert.Equal(t, 55, sum.WeeklyTotal)
	assert.Equal(t, 55, sum.MonthlyTotal)
}

func TestGetScoreSummary_Unregistered(t *testing.T) {
	h := query.NewGetScoreSummaryHandler(memory.NewLedgerRepository(), sept1Noon)

	sum, err := h.Handle(context.Background(), query.GetScoreSummaryQuery{UserID: "42"})
	require.NoError(t, err)

	assert.False(t, sum.Registered)
	assert.Zero(t, sum.TodayPoints)
	assert.Equal(t, "2025-09-01", sum.Date)
}

func TestGetScoreSummary_NoEntryToday(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seen := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seed(t, repo, "42", "Sara", seen, "2025-08-30", 40)

	h := query.NewGetScoreSummaryHandler(repo, sept1Noon)

	sum, err := h.Handle(context.Background(), query.GetScoreSummaryQuery{UserID: "42"})
	require.NoError(t, err)
	assert.True(t, sum.Registered)
	assert.Zero(t, sum.TodayPoints)
	assert.Equal(t, 40, sum.WeeklyTotal)
}

func TestGetScoreSummary_InvalidID(t *testing.T) {
	h := query.NewGetScoreSummaryHandler(memory.NewLedgerRepository(), sept1Noon)

	_, err := h.Handle(context.Background(), query.GetScoreSummaryQuery{UserID: ""})
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboard_DefaultsToMonthly(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, "a", "Ali", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "2025-09-01", 30)
	seed(t, repo, "b", "Sara", time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), "2025-09-01", 60)

	h := query.NewGetLeaderboardHandler(repo, nil, 0)

	res, err := h.Handle(context.Background(), query.GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, leaderboard.WindowMonthly, res.Window)
	assert.False(t, res.FromCache)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "b", res.Rows[0].UserID)
	assert.Equal(t, 60, res.Rows[0].Points)
}

func TestGetLeaderboard_LimitApplied(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, "a", "Ali", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "2025-09-01", 30)
	seed(t, repo, "b", "Sara", time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), "2025-09-01", 60)
	seed(t, repo, "c", "Reza", time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC), "2025-09-01", 10)

	h := query.NewGetLeaderboardHandler(repo, nil, 0)

	res, err := h.Handle(context.Background(), query.GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Rows[0].Rank)
	assert.Equal(t, 2, res.Rows[1].Rank)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := query.NewGetLeaderboardHandler(memory.NewLedgerRepository(), nil, 0)
	ctx := context.Background()

	_, err := h.Handle(ctx, query.GetLeaderboardQuery{Window: "yearly"})
	assert.Error(t, err)

	_, err = h.Handle(ctx, query.GetLeaderboardQuery{Limit: query.MaxLeaderboardLimit + 1})
	assert.Error(t, err)
}

// fakeCache is a programmable leaderboard.Cache with the redis semantics:
// SetTop stores the rows under one key, GetTop truncates at read time.
type fakeCache struct {
	rows    []leaderboard.Row
	hit     bool
	setRows []leaderboard.Row
}

func (c *fakeCache) GetTop(_ context.Context, limit int) ([]leaderboard.Row, error) {
	if !c.hit {
		return nil, errors.New("miss")
	}
	rows := c.rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (c *fakeCache) SetTop(_ context.Context, rows []leaderboard.Row, _ time.Duration) error {
	c.setRows = rows
	c.rows = rows
	c.hit = true
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error { return nil }

func TestGetLeaderboard_CacheHit(t *testing.T) {
	cache := &fakeCache{hit: true, rows: []leaderboard.Row{{Rank: 1, UserID: "cached", Points: 99}}}
	h := query.NewGetLeaderboardHandler(memory.NewLedgerRepository(), cache, time.Minute)

	res, err := h.Handle(context.Background(), query.GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "cached", res.Rows[0].UserID)
}

func TestGetLeaderboard_CacheMissFallsThrough(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, "a", "Ali", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "2025-09-01", 30)

	cache := &fakeCache{}
	h := query.NewGetLeaderboardHandler(repo, cache, time.Minute)

	res, err := h.Handle(context.Background(), query.GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "a", res.Rows[0].UserID)

	// The fresh result was written back.
	require.Len(t, cache.setRows, 1)
}

func TestGetLeaderboard_CacheStoresFullRanking(t *testing.T) {
	repo := memory.NewLedgerRepository()
	for i, id := range []string{"a", "b", "c", "d"} {
		seed(t, repo, id, "User "+id, time.Date(2025, 8, 1+i, 0, 0, 0, 0, time.UTC), "2025-09-01", 100-10*i)
	}

	cache := &fakeCache{}
	h := query.NewGetLeaderboardHandler(repo, cache, time.Minute)
	ctx := context.Background()

	// A small first read populates the cache with the full ranking.
	res, err := h.Handle(ctx, query.GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Len(t, cache.setRows, 4)

	// A later, larger read hits the cache and must not be starved by the
	// first caller's limit.
	res, err = h.Handle(ctx, query.GetLeaderboardQuery{Limit: 3})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "a", res.Rows[0].UserID)
	assert.Equal(t, "c", res.Rows[2].UserID)
}

func TestGetLeaderboard_WeeklyWindowSkipsCache(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, "a", "Ali", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "2025-09-01", 30)

	cache := &fakeCache{hit: true, rows: []leaderboard.Row{{UserID: "cached"}}}
	h := query.NewGetLeaderboardHandler(repo, cache, time.Minute)

	res, err := h.Handle(context.Background(), query.GetLeaderboardQuery{Window: leaderboard.WindowWeekly})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "a", res.Rows[0].UserID)
}
