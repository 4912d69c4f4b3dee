package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
)

func seenAt(day int) time.Time {
	return time.Date(2025, 8, day, 10, 0, 0, 0, time.UTC)
}

func TestRankDaily(t *testing.T) {
	standings := []ledger.DailyStanding{
		{UserID: "a", DisplayName: "Ali", Points: 20, FirstSeenAt: seenAt(1)},
		{UserID: "b", DisplayName: "Sara", Points: 45, FirstSeenAt: seenAt(2)},
		{UserID: "c", DisplayName: "Reza", Points: 10, FirstSeenAt: seenAt(3)},
	}

	rows := RankDaily(standings)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Rank: 1, UserID: "b", DisplayName: "Sara", Points: 45}, rows[0])
	assert.Equal(t, "a", rows[1].UserID)
	assert.Equal(t, "c", rows[2].UserID)

	// Input order is untouched.
	assert.Equal(t, ledger.UserID("a"), standings[0].UserID)
}

func TestRankDaily_TieBreaksByFirstSeen(t *testing.T) {
	standings := []ledger.DailyStanding{
		{UserID: "late", DisplayName: "Late", Points: 30, FirstSeenAt: seenAt(5)},
		{UserID: "early", DisplayName: "Early", Points: 30, FirstSeenAt: seenAt(1)},
	}

	rows := RankDaily(standings)
	assert.Equal(t, "early", rows[0].UserID)
	assert.Equal(t, "late", rows[1].UserID)
}

func TestRankTotals_Windows(t *testing.T) {
	totals := []ledger.TotalsStanding{
		{UserID: "a", DisplayName: "Ali", Weekly: 50, Monthly: 80, FirstSeenAt: seenAt(1)},
		{UserID: "b", DisplayName: "Sara", Weekly: 30, Monthly: 120, FirstSeenAt: seenAt(2)},
	}

	weekly := RankTotals(totals, WindowWeekly)
	assert.Equal(t, "a", weekly[0].UserID)
	assert.Equal(t, 50, weekly[0].Points)

	monthly := RankTotals(totals, WindowMonthly)
	assert.Equal(t, "b", monthly[0].UserID)
	assert.Equal(t, 120, monthly[0].Points)
}

func TestRankTotals_TieBreaksByFirstSeen(t *testing.T) {
	totals := []ledger.TotalsStanding{
		{UserID: "late", Weekly: 40, FirstSeenAt: seenAt(9)},
		{UserID: "early", Weekly: 40, FirstSeenAt: seenAt(2)},
	}

	rows := RankTotals(totals, WindowWeekly)
	assert.Equal(t, "early", rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestTop(t *testing.T) {
	rows := []Row{{Rank: 1}, {Rank: 2}, {Rank: 3}}

	assert.Len(t, Top(rows, 2), 2)
	assert.Len(t, Top(rows, 3), 3)
	assert.Len(t, Top(rows, 10), 3)
	assert.Len(t, Top(rows, 0), 3)
}
