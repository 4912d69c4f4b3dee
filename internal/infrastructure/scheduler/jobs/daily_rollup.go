// Package jobs contains the scheduled rollup jobs. Each job is a thin wrapper
// over the corresponding command handler; all idempotency lives in the
// handlers, so the jobs stay safe under duplicate or late triggers.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
)

// JobNameDailyRollup is the registered name of the daily rollup job.
const JobNameDailyRollup = "daily_rollup"

// defaultRollupTimeout bounds a single rollup run.
const defaultRollupTimeout = 2 * time.Minute

// DailyRollupJob runs the daily rollup at its scheduled local time.
type DailyRollupJob struct {
	handler *command.RunDailyRollupHandler
	logger  *slog.Logger
	timeout time.Duration
}

// NewDailyRollupJob creates a new DailyRollupJob.
func NewDailyRollupJob(handler *command.RunDailyRollupHandler, logger *slog.Logger) *DailyRollupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyRollupJob{
		handler: handler,
		logger:  logger.With("job", JobNameDailyRollup),
		timeout: defaultRollupTimeout,
	}
}

// Name implements scheduler.Job.
func (j *DailyRollupJob) Name() string { return JobNameDailyRollup }

// Description implements scheduler.Job.
func (j *DailyRollupJob) Description() string {
	return "ranks today's study reports and distributes the daily bonuses"
}

// Run implements scheduler.Job.
func (j *DailyRollupJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	res, err := j.handler.Handle(ctx, command.RunDailyRollupCommand{})
	if err != nil {
		return fmt.Errorf("daily rollup: %w", err)
	}

	switch {
	case res.Empty:
		j.logger.Info("daily rollup: no reports today", "date", res.Date)
	case res.Repeat:
		j.logger.Warn("daily rollup: bonuses already awarded", "date", res.Date)
	default:
		j.logger.Info("daily rollup completed",
			"date", res.Date,
			"participants", len(res.Rows),
			"winner", res.Winner.DisplayName,
			"progressed", len(res.Progressed),
		)
	}
	return nil
}
