package handler

import (
	"context"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP HANDLER
// Handles /rollup [daily|weekly|monthly] - manual trigger for group admins,
// e.g. after a missed scheduled run. The underlying handlers are the same ones
// the scheduler runs, so a duplicate trigger is harmless.
// ══════════════════════════════════════════════════════════════════════════════

// RollupHandler handles the admin /rollup command.
type RollupHandler struct {
	daily   *command.RunDailyRollupHandler
	weekly  *command.RunWeeklyRollupHandler
	monthly *command.RunMonthlyRollupHandler
}

// NewRollupHandler creates a new RollupHandler.
func NewRollupHandler(
	daily *command.RunDailyRollupHandler,
	weekly *command.RunWeeklyRollupHandler,
	monthly *command.RunMonthlyRollupHandler,
) *RollupHandler {
	return &RollupHandler{daily: daily, weekly: weekly, monthly: monthly}
}

// RollupRequest contains the parsed /rollup command data.
type RollupRequest struct {
	// UserID is the admin's Telegram ID.
	UserID int64

	// Args selects the period: "daily" (default), "weekly" or "monthly".
	Args string
}

// Handle processes the /rollup command. The announcement itself is posted to
// the group by the event pipeline; the reply only confirms the outcome.
func (h *RollupHandler) Handle(ctx context.Context, req RollupRequest) (*Response, error) {
	period := strings.ToLower(strings.TrimSpace(req.Args))

	var (
		empty, repeat bool
		err           error
	)

	switch period {
	case "", "daily":
		var res *command.DailyRollupResult
		res, err = h.daily.Handle(ctx, command.RunDailyRollupCommand{})
		if res != nil {
			empty, repeat = res.Empty, res.Repeat
		}
	case "weekly":
		var res *command.WeeklyRollupResult
		res, err = h.weekly.Handle(ctx, command.RunWeeklyRollupCommand{})
		if res != nil {
			empty, repeat = res.Empty, res.Repeat
		}
	case "monthly":
		var res *command.MonthlyRollupResult
		res, err = h.monthly.Handle(ctx, command.RunMonthlyRollupCommand{})
		if res != nil {
			empty, repeat = res.Empty, res.Repeat
		}
	default:
		return &Response{Text: "استفاده: /rollup [daily|weekly|monthly]"}, nil
	}

	if err != nil {
		return &Response{Text: presenter.GenericError()}, err
	}

	switch {
	case repeat:
		return &Response{Text: presenter.RollupAlreadyDone()}, nil
	case empty:
		return &Response{Text: presenter.RollupNothingToDo()}, nil
	default:
		return &Response{Text: presenter.RollupTriggered()}, nil
	}
}
