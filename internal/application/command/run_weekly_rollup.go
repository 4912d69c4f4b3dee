package command

import (
	"context"
	"fmt"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY ROLLUP
// Ranks the weekly totals, pays the winner's bonus into their monthly total,
// announces the winner, and zeroes every weekly total. Guarded by a period
// mark (same spirit as the daily bonus ledger) so a duplicate trigger within
// one ISO week cannot double-reset.
// ══════════════════════════════════════════════════════════════════════════════

// RunWeeklyRollupCommand triggers the weekly rollup.
type RunWeeklyRollupCommand struct {
	// Period overrides the ISO-week key (e.g. "2025-W36"); empty means the
	// current week.
	Period string
}

// RunWeeklyRollupHandler handles the weekly rollup.
type RunWeeklyRollupHandler struct {
	repo      ledger.Repository
	lock      *LedgerLock
	events    shared.EventPublisher
	cache     leaderboard.Cache
	presenter RollupPresenter
	rules     ledger.Rules
	now       func() time.Time
}

// NewRunWeeklyRollupHandler creates a new RunWeeklyRollupHandler.
func NewRunWeeklyRollupHandler(
	repo ledger.Repository,
	lock *LedgerLock,
	events shared.EventPublisher,
	cache leaderboard.Cache,
	presenter RollupPresenter,
	rules ledger.Rules,
	now func() time.Time,
) *RunWeeklyRollupHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &RunWeeklyRollupHandler{
		repo:      repo,
		lock:      lock,
		events:    events,
		cache:     cache,
		presenter: presenter,
		rules:     rules,
		now:       now,
	}
}

// Handle executes the weekly rollup.
func (h *RunWeeklyRollupHandler) Handle(ctx context.Context, cmd RunWeeklyRollupCommand) (*WeeklyRollupResult, error) {
	period := cmd.Period
	if period == "" {
		period = timeutil.WeekKey(h.now())
	}

	var result *WeeklyRollupResult

	err := h.lock.Do(func() error {
		mark, err := h.repo.RollupMark(ctx, ledger.RollupWeekly)
		if err != nil {
			return fmt.Errorf("weekly_rollup: load mark: %w", err)
		}
		if mark == period {
			result = &WeeklyRollupResult{Period: period, Repeat: true}
			return nil
		}

		totals, err := h.repo.Totals(ctx)
		if err != nil {
			return fmt.Errorf("weekly_rollup: load totals: %w", err)
		}

		rows := leaderboard.RankTotals(totals, leaderboard.WindowWeekly)
		if len(rows) == 0 || rows[0].Points == 0 {
			// Nobody scored this week. Keep totals untouched so a late
			// rollup after a quiet week cannot wipe anything.
			result = &WeeklyRollupResult{Period: period, Empty: true}
			return nil
		}

		winner := rows[0]
		if err := h.repo.ApplyWeeklyReset(ctx, period, ledger.UserID(winner.UserID), h.rules.WeeklyTopBonus); err != nil {
			return fmt.Errorf("weekly_rollup: apply reset: %w", err)
		}

		result = &WeeklyRollupResult{
			Period: period,
			Rows:   rows,
			Winner: &winner,
			Bonus:  h.rules.WeeklyTopBonus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publish(ctx, result)
	return result, nil
}

// publish invalidates the cache and fans out the announcement, outside the lock.
func (h *RunWeeklyRollupHandler) publish(ctx context.Context, res *WeeklyRollupResult) {
	if h.cache != nil && !res.Empty && !res.Repeat {
		_ = h.cache.Invalidate(ctx)
	}
	if h.events == nil || h.presenter == nil {
		return
	}
	ev := shared.NewRollupCompletedEvent(shared.EventWeeklyRollupCompleted,
		res.Period, h.presenter.WeeklyAnnouncement(res), res.Repeat)
	_ = h.events.Publish(ev)
}
