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
// DAILY ROLLUP
// Ranks today's reporters, awards the top-of-day and day-over-day improvement
// bonuses exactly once per date (gated by the bonus ledger), and announces the
// result. Safe against duplicate triggers: a re-run for an awarded date only
// re-announces the ranking.
// ══════════════════════════════════════════════════════════════════════════════

// RunDailyRollupCommand triggers the daily rollup.
type RunDailyRollupCommand struct {
	// Date overrides the rolled-up day (YYYY-MM-DD); empty means today.
	Date string
}

// RunDailyRollupHandler handles the daily rollup.
type RunDailyRollupHandler struct {
	repo      ledger.Repository
	lock      *LedgerLock
	events    shared.EventPublisher
	cache     leaderboard.Cache
	presenter RollupPresenter
	rules     ledger.Rules
	now       func() time.Time
}

// NewRunDailyRollupHandler creates a new RunDailyRollupHandler.
func NewRunDailyRollupHandler(
	repo ledger.Repository,
	lock *LedgerLock,
	events shared.EventPublisher,
	cache leaderboard.Cache,
	presenter RollupPresenter,
	rules ledger.Rules,
	now func() time.Time,
) *RunDailyRollupHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &RunDailyRollupHandler{
		repo:      repo,
		lock:      lock,
		events:    events,
		cache:     cache,
		presenter: presenter,
		rules:     rules,
		now:       now,
	}
}

// Handle executes the daily rollup.
func (h *RunDailyRollupHandler) Handle(ctx context.Context, cmd RunDailyRollupCommand) (*DailyRollupResult, error) {
	today := cmd.Date
	if today == "" {
		today = timeutil.DateKey(h.now())
	}
	todayStart, err := timeutil.ParseDateKey(today)
	if err != nil {
		return nil, shared.WrapError("rollup", "RunDaily", shared.ErrInvalidInput, "bad date", err)
	}
	yesterday := timeutil.PreviousDateKey(todayStart)

	var result *DailyRollupResult

	err = h.lock.Do(func() error {
		standings, err := h.repo.StandingsOn(ctx, today)
		if err != nil {
			return fmt.Errorf("daily_rollup: load standings: %w", err)
		}

		if len(standings) == 0 {
			result = &DailyRollupResult{Date: today, Empty: true}
			return nil
		}

		rows := leaderboard.RankDaily(standings)

		awarded, err := h.repo.HasBonusDate(ctx, today)
		if err != nil {
			return fmt.Errorf("daily_rollup: bonus ledger check: %w", err)
		}
		if awarded {
			// Idempotency guard: the date is in the bonus ledger, so this
			// is a duplicate trigger. Re-announce, mutate nothing.
			result = &DailyRollupResult{Date: today, Rows: rows, Repeat: true}
			return nil
		}

		yesterdayPoints, err := h.repo.PointsOn(ctx, yesterday)
		if err != nil {
			return fmt.Errorf("daily_rollup: load yesterday points: %w", err)
		}

		winner := rows[0]
		awards := map[ledger.UserID]*ledger.BonusAward{}
		award := func(id ledger.UserID, amount int) {
			a, ok := awards[id]
			if !ok {
				a = &ledger.BonusAward{UserID: id}
				awards[id] = a
			}
			a.Weekly += amount
			a.Monthly += amount
		}

		award(ledger.UserID(winner.UserID), h.rules.DailyTopBonus)

		var progressed []string
		for _, s := range standings {
			// An absent yesterday entry counts as 0, so any activity at
			// all is an improvement over a silent day.
			if s.Points > yesterdayPoints[s.UserID] {
				award(s.UserID, h.rules.ProgressBonus)
				progressed = append(progressed, s.DisplayName)
			}
		}

		flat := make([]ledger.BonusAward, 0, len(awards))
		for _, s := range standings { // deterministic order for persistence
			if a, ok := awards[s.UserID]; ok {
				flat = append(flat, *a)
			}
		}

		if err := h.repo.ApplyDailyAwards(ctx, today, flat); err != nil {
			return fmt.Errorf("daily_rollup: apply awards: %w", err)
		}

		result = &DailyRollupResult{
			Date:          today,
			Rows:          rows,
			Winner:        &winner,
			Progressed:    progressed,
			TopBonus:      h.rules.DailyTopBonus,
			ProgressBonus: h.rules.ProgressBonus,
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
func (h *RunDailyRollupHandler) publish(ctx context.Context, res *DailyRollupResult) {
	if h.cache != nil && !res.Empty && !res.Repeat {
		_ = h.cache.Invalidate(ctx)
	}
	if h.events == nil || h.presenter == nil {
		return
	}
	ev := shared.NewRollupCompletedEvent(shared.EventDailyRollupCompleted,
		res.Date, h.presenter.DailyAnnouncement(res), res.Repeat)
	_ = h.events.Publish(ev)
}
