// Package leaderboard contains ranked projections over the activity ledger.
// Ranking is read-only: it sorts standings snapshots, it never mutates totals.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
)

// Window selects which rolling total a ranking is computed over.
type Window string

const (
	// WindowWeekly ranks by the weekly running total.
	WindowWeekly Window = "weekly"

	// WindowMonthly ranks by the monthly running total.
	WindowMonthly Window = "monthly"
)

// Row is a single ranked leaderboard entry.
type Row struct {
	// Rank is the 1-based position.
	Rank int `json:"rank"`

	// UserID is the participant key.
	UserID string `json:"user_id"`

	// DisplayName is the participant's last-seen name.
	DisplayName string `json:"display_name"`

	// Points is the value ranked over (daily points or a rolling total).
	Points int `json:"points"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// Ties are broken by first-seen order (earliest CreatedAt wins), which is stable
// across repeated runs and independent of map iteration order.
// ══════════════════════════════════════════════════════════════════════════════

// RankDaily ranks a day's standings descending by points.
func RankDaily(standings []ledger.DailyStanding) []Row {
	sorted := make([]ledger.DailyStanding, len(standings))
	copy(sorted, standings)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].FirstSeenAt.Before(sorted[j].FirstSeenAt)
	})

	rows := make([]Row, len(sorted))
	for i, s := range sorted {
		rows[i] = Row{
			Rank:        i + 1,
			UserID:      string(s.UserID),
			DisplayName: s.DisplayName,
			Points:      s.Points,
		}
	}
	return rows
}

// RankTotals ranks rolling totals descending over the selected window.
func RankTotals(standings []ledger.TotalsStanding, window Window) []Row {
	value := func(s ledger.TotalsStanding) int {
		if window == WindowWeekly {
			return s.Weekly
		}
		return s.Monthly
	}

	sorted := make([]ledger.TotalsStanding, len(standings))
	copy(sorted, standings)

	sort.SliceStable(sorted, func(i, j int) bool {
		if value(sorted[i]) != value(sorted[j]) {
			return value(sorted[i]) > value(sorted[j])
		}
		return sorted[i].FirstSeenAt.Before(sorted[j].FirstSeenAt)
	})

	rows := make([]Row, len(sorted))
	for i, s := range sorted {
		rows[i] = Row{
			Rank:        i + 1,
			UserID:      string(s.UserID),
			DisplayName: s.DisplayName,
			Points:      value(s),
		}
	}
	return rows
}

// Top returns at most n leading rows.
func Top(rows []Row, n int) []Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Cache is an optional read-through cache for the monthly leaderboard.
// The bot stays fully functional when no cache is configured.
type Cache interface {
	// GetTop returns the cached monthly ranking, at most limit rows.
	// An error (including a cache miss) means "go to the repository".
	GetTop(ctx context.Context, limit int) ([]Row, error)

	// SetTop replaces the cached monthly ranking.
	SetTop(ctx context.Context, rows []Row, ttl time.Duration) error

	// Invalidate drops the cached ranking after any ledger write.
	Invalidate(ctx context.Context) error
}
