package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
)

// JobNameMonthlyRollup is the registered name of the monthly rollup job.
const JobNameMonthlyRollup = "monthly_rollup"

// MonthlyRollupJob runs the monthly rollup at its scheduled local time.
type MonthlyRollupJob struct {
	handler *command.RunMonthlyRollupHandler
	logger  *slog.Logger
	timeout time.Duration
}

// NewMonthlyRollupJob creates a new MonthlyRollupJob.
func NewMonthlyRollupJob(handler *command.RunMonthlyRollupHandler, logger *slog.Logger) *MonthlyRollupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonthlyRollupJob{
		handler: handler,
		logger:  logger.With("job", JobNameMonthlyRollup),
		timeout: defaultRollupTimeout,
	}
}

// Name implements scheduler.Job.
func (j *MonthlyRollupJob) Name() string { return JobNameMonthlyRollup }

// Description implements scheduler.Job.
func (j *MonthlyRollupJob) Description() string {
	return "announces the monthly winner and resets monthly totals"
}

// Run implements scheduler.Job.
func (j *MonthlyRollupJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	res, err := j.handler.Handle(ctx, command.RunMonthlyRollupCommand{})
	if err != nil {
		return fmt.Errorf("monthly rollup: %w", err)
	}

	switch {
	case res.Repeat:
		j.logger.Warn("monthly rollup: period already rolled up", "period", res.Period)
	case res.Empty:
		j.logger.Info("monthly rollup: nobody scored this month", "period", res.Period)
	default:
		j.logger.Info("monthly rollup completed",
			"period", res.Period,
			"winner", res.Winner.DisplayName,
		)
	}
	return nil
}
