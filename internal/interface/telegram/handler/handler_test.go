package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/memory"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/handler"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

func noon() time.Time {
	return timeutil.DateTime(2025, 9, 1, 12, 0, 0)
}

func newRecordCmd(repo *memory.LedgerRepository, presenceOnce bool) *command.RecordActivityHandler {
	return command.NewRecordActivityHandler(repo, command.NewLedgerLock(), nil, nil,
		command.RecordActivityConfig{
			Rules:              ledger.DefaultRules(),
			PresenceOncePerDay: presenceOnce,
			Now:                noon,
		})
}

func TestStudyHandler(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := handler.NewStudyHandler(newRecordCmd(repo, false), presenter.NewScorePresenter())
	ctx := context.Background()

	resp, err := h.Handle(ctx, handler.StudyRequest{UserID: 42, DisplayName: "Sara", Args: "3"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "3")
	assert.Contains(t, resp.Text, "30")

	rec, err := repo.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 30, rec.WeeklyTotal)
}

func TestStudyHandler_BadInput(t *testing.T) {
	h := handler.NewStudyHandler(newRecordCmd(memory.NewLedgerRepository(), false), presenter.NewScorePresenter())
	ctx := context.Background()

	for _, args := range []string{"", "0"} {
		resp, err := h.Handle(ctx, handler.StudyRequest{UserID: 42, Args: args})
		require.NoError(t, err)
		assert.Equal(t, presenter.UsageStudy(), resp.Text)
	}

	for _, args := range []string{"abc", "-2", "25", "2.5"} {
		resp, err := h.Handle(ctx, handler.StudyRequest{UserID: 42, Args: args})
		require.NoError(t, err)
		assert.Equal(t, presenter.InvalidNumber(), resp.Text, "args %q", args)
	}
}

func TestTestHandler(t *testing.T) {
	repo := memory.NewLedgerRepository()
	rules := ledger.DefaultRules()
	h := handler.NewTestHandler(newRecordCmd(repo, false), presenter.NewScorePresenter(), rules)
	ctx := context.Background()

	// 45 tests: two full blocks worth 10 points.
	resp, err := h.Handle(ctx, handler.TestRequest{UserID: 42, DisplayName: "Sara", Args: "45"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "45")
	assert.Contains(t, resp.Text, "10")
}

func TestTestHandler_BelowBlockExplainsScoring(t *testing.T) {
	h := handler.NewTestHandler(newRecordCmd(memory.NewLedgerRepository(), false),
		presenter.NewScorePresenter(), ledger.DefaultRules())

	// 15 tests earn nothing yet; the reply explains the block size.
	resp, err := h.Handle(context.Background(), handler.TestRequest{UserID: 42, DisplayName: "Sara", Args: "15"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "20")
}

func TestReportHandler(t *testing.T) {
	repo := memory.NewLedgerRepository()
	h := handler.NewReportHandler(newRecordCmd(repo, true), presenter.NewScorePresenter())
	ctx := context.Background()

	resp, err := h.Handle(ctx, handler.ReportRequest{UserID: 42, DisplayName: "Sara"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "10")

	// The duplicate is a friendly reply, not an error bubbling to the bot.
	resp, err = h.Handle(ctx, handler.ReportRequest{UserID: 42, DisplayName: "Sara"})
	require.NoError(t, err)
	assert.Equal(t, presenter.NewScorePresenter().AlreadyReported(10), resp.Text)
}

func TestScoreHandler(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	_, err := newRecordCmd(repo, false).Handle(ctx, command.RecordActivityCommand{
		UserID: "42", DisplayName: "Sara", AddHours: 2,
	})
	require.NoError(t, err)

	h := handler.NewScoreHandler(query.NewGetScoreSummaryHandler(repo, noon), presenter.NewScorePresenter())

	resp, err := h.Handle(ctx, handler.ScoreRequest{UserID: 42})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Sara")
	assert.Contains(t, resp.Text, "20")
}

func TestTopHandler_WindowSelection(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	_, err := newRecordCmd(repo, false).Handle(ctx, command.RecordActivityCommand{
		UserID: "42", DisplayName: "Sara", AddHours: 2,
	})
	require.NoError(t, err)

	h := handler.NewTopHandler(query.NewGetLeaderboardHandler(repo, nil, 0), presenter.NewLeaderboardPresenter())

	monthly, err := h.Handle(ctx, handler.TopRequest{UserID: 42, Args: ""})
	require.NoError(t, err)
	assert.Contains(t, monthly.Text, "Sara")

	weekly, err := h.Handle(ctx, handler.TopRequest{UserID: 42, Args: "week"})
	require.NoError(t, err)
	assert.Contains(t, weekly.Text, "Sara")
	assert.NotEqual(t, monthly.Text, weekly.Text, "weekly and monthly boards carry different headers")
}

func TestStartHandler(t *testing.T) {
	h := handler.NewStartHandler()

	resp, err := h.Handle(context.Background(), handler.StartRequest{UserID: 42, DisplayName: "Sara"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Sara")
}
