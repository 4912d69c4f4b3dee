package command

import (
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP SHARED TYPES
// The three rollup handlers (daily, weekly, monthly) share the announcement
// contract: they compute a structured outcome under the ledger lock, render it
// through the presenter, and publish the text as an event after release. The
// scheduler jobs and the manual admin triggers run the exact same handlers.
// ══════════════════════════════════════════════════════════════════════════════

// RollupPresenter renders group-chat announcements from rollup outcomes.
// Implemented by the telegram presenter; injected so the application layer
// stays free of UI strings.
type RollupPresenter interface {
	DailyAnnouncement(res *DailyRollupResult) string
	WeeklyAnnouncement(res *WeeklyRollupResult) string
	MonthlyAnnouncement(res *MonthlyRollupResult) string
}

// DailyRollupResult is the outcome of one daily rollup run.
type DailyRollupResult struct {
	// Date is the day that was rolled up (YYYY-MM-DD).
	Date string

	// Rows is the full ranked list for the date.
	Rows []leaderboard.Row

	// Empty indicates nobody reported on the date; nothing was mutated.
	Empty bool

	// Repeat indicates bonuses were already distributed for the date; the
	// ranking was re-announced but nothing was mutated.
	Repeat bool

	// Winner is the rank-1 row when bonuses were awarded.
	Winner *leaderboard.Row

	// Progressed lists the display names that beat their yesterday points.
	Progressed []string

	// TopBonus and ProgressBonus echo the awarded magnitudes.
	TopBonus      int
	ProgressBonus int
}

// WeeklyRollupResult is the outcome of one weekly rollup run.
type WeeklyRollupResult struct {
	// Period is the ISO-week key that was rolled up (e.g. "2025-W36").
	Period string

	// Rows is the ranked weekly standings before the reset.
	Rows []leaderboard.Row

	// Empty indicates no points were scored this week; totals kept.
	Empty bool

	// Repeat indicates this period was already rolled up; no reset repeated.
	Repeat bool

	// Winner is the rank-1 row when the rollup ran.
	Winner *leaderboard.Row

	// Bonus is the amount paid into the winner's monthly total.
	Bonus int
}

// MonthlyRollupResult is the outcome of one monthly rollup run.
type MonthlyRollupResult struct {
	// Period is the month key that was rolled up (e.g. "2025-09").
	Period string

	// Rows is the ranked monthly standings before the reset.
	Rows []leaderboard.Row

	// Empty indicates no points were scored this month; totals kept.
	Empty bool

	// Repeat indicates this period was already rolled up.
	Repeat bool

	// Winner is the rank-1 row when the rollup ran.
	Winner *leaderboard.Row
}
