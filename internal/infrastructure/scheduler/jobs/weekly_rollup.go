package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
)

// JobNameWeeklyRollup is the registered name of the weekly rollup job.
const JobNameWeeklyRollup = "weekly_rollup"

// WeeklyRollupJob runs the weekly rollup at its scheduled local time.
type WeeklyRollupJob struct {
	handler *command.RunWeeklyRollupHandler
	logger  *slog.Logger
	timeout time.Duration
}

// NewWeeklyRollupJob creates a new WeeklyRollupJob.
func NewWeeklyRollupJob(handler *command.RunWeeklyRollupHandler, logger *slog.Logger) *WeeklyRollupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyRollupJob{
		handler: handler,
		logger:  logger.With("job", JobNameWeeklyRollup),
		timeout: defaultRollupTimeout,
	}
}

// Name implements scheduler.Job.
func (j *WeeklyRollupJob) Name() string { return JobNameWeeklyRollup }

// Description implements scheduler.Job.
func (j *WeeklyRollupJob) Description() string {
	return "announces the weekly winner, pays the weekly bonus, and resets weekly totals"
}

// Run implements scheduler.Job.
func (j *WeeklyRollupJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	res, err := j.handler.Handle(ctx, command.RunWeeklyRollupCommand{})
	if err != nil {
		return fmt.Errorf("weekly rollup: %w", err)
	}

	switch {
	case res.Repeat:
		j.logger.Warn("weekly rollup: period already rolled up", "period", res.Period)
	case res.Empty:
		j.logger.Info("weekly rollup: nobody scored this week", "period", res.Period)
	default:
		j.logger.Info("weekly rollup completed",
			"period", res.Period,
			"winner", res.Winner.DisplayName,
			"bonus", res.Bonus,
		)
	}
	return nil
}
