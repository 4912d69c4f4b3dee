package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/memory"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

func fixedClock(day int) func() time.Time {
	return func() time.Time { return timeutil.DateTime(2025, 9, day, 12, 0, 0) }
}

func newRecordHandler(repo *memory.LedgerRepository, presenceOnce bool, day int) *command.RecordActivityHandler {
	return command.NewRecordActivityHandler(repo, command.NewLedgerLock(), nil, nil,
		command.RecordActivityConfig{
			Rules:              ledger.DefaultRules(),
			PresenceOncePerDay: presenceOnce,
			Now:                fixedClock(day),
		})
}

func TestRecordActivity_FirstReportRegisters(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, false, 1)

	res, err := h.Handle(context.Background(), command.RecordActivityCommand{
		UserID:      "42",
		DisplayName: "Sara",
		AddHours:    3,
		AddTests:    45,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.Registered)
	assert.Equal(t, "2025-09-01", res.Date)
	assert.Equal(t, 40, res.Points) // 3*10 + 2 full blocks
	assert.Equal(t, 40, res.Delta)

	rec, err := repo.GetUser(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 40, rec.WeeklyTotal)
	assert.Equal(t, 40, rec.MonthlyTotal)
}

func TestRecordActivity_SameDayAccumulates(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, false, 1)
	ctx := context.Background()

	_, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", AddHours: 2})
	require.NoError(t, err)

	res, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", AddHours: 1, AddTests: 25})
	require.NoError(t, err)

	assert.False(t, res.Registered)
	assert.Equal(t, 35, res.Points) // 3h + one test block
	assert.Equal(t, 15, res.Delta)

	rec, err := repo.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 35, rec.WeeklyTotal)
	assert.Equal(t, 35, rec.MonthlyTotal)
}

func TestRecordActivity_PresenceAfterHoursAddsBonusOnly(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, false, 1)
	ctx := context.Background()

	_, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", AddHours: 2})
	require.NoError(t, err)

	res, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Delta)
	assert.Equal(t, 30, res.Points)
}

func TestRecordActivity_PresenceOncePerDay(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, true, 1)
	ctx := context.Background()

	first, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.NoError(t, err)
	assert.Equal(t, 10, first.Points)

	// A second presence-only report the same day is rejected, echoing what
	// was already recorded.
	_, err = h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrAlreadyReported)

	var already *ledger.AlreadyReportedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, 10, already.Points)

	// The rejection mutated nothing.
	rec, err := repo.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 10, rec.WeeklyTotal)
}

func TestRecordActivity_PresenceOnce_HoursStillAccepted(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, true, 1)
	ctx := context.Background()

	_, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.NoError(t, err)

	// Only presence-only duplicates are gated; hour reports keep flowing.
	res, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", AddHours: 2})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Points)
}

func TestRecordActivity_NewDayStartsFresh(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	_, err := newRecordHandler(repo, true, 1).Handle(ctx,
		command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.NoError(t, err)

	res, err := newRecordHandler(repo, true, 2).Handle(ctx,
		command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", SetPresence: true})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-02", res.Date)
	assert.Equal(t, 10, res.Points)

	// Totals roll across days.
	rec, err := repo.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 20, rec.WeeklyTotal)
}

func TestRecordActivity_Validation(t *testing.T) {
	h := newRecordHandler(memory.NewLedgerRepository(), false, 1)
	ctx := context.Background()

	_, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "", AddHours: 1})
	assert.Error(t, err)

	_, err = h.Handle(ctx, command.RecordActivityCommand{UserID: "42", AddHours: -1})
	assert.ErrorIs(t, err, ledger.ErrNegativeActivity)

	_, err = h.Handle(ctx, command.RecordActivityCommand{UserID: "42"})
	assert.Error(t, err, "empty report must be rejected")
}

func TestRecordActivity_RefreshesDisplayName(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := newRecordHandler(repo, false, 1)
	ctx := context.Background()

	_, err := h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara", AddHours: 1})
	require.NoError(t, err)

	_, err = h.Handle(ctx, command.RecordActivityCommand{UserID: "42", DisplayName: "Sara M.", AddHours: 1})
	require.NoError(t, err)

	rec, err := repo.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Sara M.", rec.DisplayName)
}
