package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/memory"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

func noon() time.Time {
	return timeutil.DateTime(2025, 9, 1, 12, 0, 0)
}

func seed(t *testing.T, repo *memory.LedgerRepository, points int) {
	t.Helper()

	rec, err := ledger.NewUserRecord("42", "Sara", time.Now())
	require.NoError(t, err)
	rec.ApplyDelta(points, time.Now())
	require.NoError(t, repo.SaveActivity(context.Background(), rec, timeutil.DateKey(noon()),
		&ledger.DailyEntry{Points: points}))
}

func TestDailyRollupJob_Run(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, 40)

	handler := command.NewRunDailyRollupHandler(repo, command.NewLedgerLock(), nil, nil, nil,
		ledger.DefaultRules(), noon)
	job := NewDailyRollupJob(handler, nil)

	assert.Equal(t, JobNameDailyRollup, job.Name())
	require.NoError(t, job.Run(context.Background()))

	// The awards landed; a second scheduled run is a harmless repeat.
	has, err := repo.HasBonusDate(context.Background(), "2025-09-01")
	require.NoError(t, err)
	assert.True(t, has)
	require.NoError(t, job.Run(context.Background()))
}

func TestWeeklyRollupJob_Run(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, 40)

	handler := command.NewRunWeeklyRollupHandler(repo, command.NewLedgerLock(), nil, nil, nil,
		ledger.DefaultRules(), noon)
	job := NewWeeklyRollupJob(handler, nil)

	assert.Equal(t, JobNameWeeklyRollup, job.Name())
	require.NoError(t, job.Run(context.Background()))

	rec, err := repo.GetUser(context.Background(), "42")
	require.NoError(t, err)
	assert.Zero(t, rec.WeeklyTotal)
}

func TestMonthlyRollupJob_Run(t *testing.T) {
	repo := memory.NewLedgerRepository()
	seed(t, repo, 40)

	handler := command.NewRunMonthlyRollupHandler(repo, command.NewLedgerLock(), nil, nil, nil, noon)
	job := NewMonthlyRollupJob(handler, nil)

	assert.Equal(t, JobNameMonthlyRollup, job.Name())
	require.NoError(t, job.Run(context.Background()))

	rec, err := repo.GetUser(context.Background(), "42")
	require.NoError(t, err)
	assert.Zero(t, rec.MonthlyTotal)
}
