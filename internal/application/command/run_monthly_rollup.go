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
// MONTHLY ROLLUP
// Announces the monthly winner (no extra bonus) and zeroes every monthly total.
// Period-mark guarded like the weekly rollup.
// ══════════════════════════════════════════════════════════════════════════════

// RunMonthlyRollupCommand triggers the monthly rollup.
type RunMonthlyRollupCommand struct {
	// Period overrides the month key (e.g. "2025-09"); empty means the
	// current month.
	Period string
}

// RunMonthlyRollupHandler handles the monthly rollup.
type RunMonthlyRollupHandler struct {
	repo      ledger.Repository
	lock      *LedgerLock
	events    shared.EventPublisher
	cache     leaderboard.Cache
	presenter RollupPresenter
	now       func() time.Time
}

// NewRunMonthlyRollupHandler creates a new RunMonthlyRollupHandler.
func NewRunMonthlyRollupHandler(
	repo ledger.Repository,
	lock *LedgerLock,
	events shared.EventPublisher,
	cache leaderboard.Cache,
	presenter RollupPresenter,
	now func() time.Time,
) *RunMonthlyRollupHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &RunMonthlyRollupHandler{
		repo:      repo,
		lock:      lock,
		events:    events,
		cache:     cache,
		presenter: presenter,
		now:       now,
	}
}

// Handle executes the monthly rollup.
func (h *RunMonthlyRollupHandler) Handle(ctx context.Context, cmd RunMonthlyRollupCommand) (*MonthlyRollupResult, error) {
	period := cmd.Period
	if period == "" {
		period = timeutil.MonthKey(h.now())
	}

	var result *MonthlyRollupResult

	err := h.lock.Do(func() error {
		mark, err := h.repo.RollupMark(ctx, ledger.RollupMonthly)
		if err != nil {
			return fmt.Errorf("monthly_rollup: load mark: %w", err)
		}
		if mark == period {
			result = &MonthlyRollupResult{Period: period, Repeat: true}
			return nil
		}

		totals, err := h.repo.Totals(ctx)
		if err != nil {
			return fmt.Errorf("monthly_rollup: load totals: %w", err)
		}

		rows := leaderboard.RankTotals(totals, leaderboard.WindowMonthly)
		if len(rows) == 0 || rows[0].Points == 0 {
			result = &MonthlyRollupResult{Period: period, Empty: true}
			return nil
		}

		winner := rows[0]
		if err := h.repo.ApplyMonthlyReset(ctx, period); err != nil {
			return fmt.Errorf("monthly_rollup: apply reset: %w", err)
		}

		result = &MonthlyRollupResult{
			Period: period,
			Rows:   rows,
			Winner: &winner,
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
func (h *RunMonthlyRollupHandler) publish(ctx context.Context, res *MonthlyRollupResult) {
	if h.cache != nil && !res.Empty && !res.Repeat {
		_ = h.cache.Invalidate(ctx)
	}
	if h.events == nil || h.presenter == nil {
		return
	}
	ev := shared.NewRollupCompletedEvent(shared.EventMonthlyRollupCompleted,
		res.Period, h.presenter.MonthlyAnnouncement(res), res.Repeat)
	_ = h.events.Publish(ev)
}
