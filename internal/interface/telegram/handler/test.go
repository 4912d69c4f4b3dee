package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST HANDLER
// Handles /test N - records N practice tests for today.
// ══════════════════════════════════════════════════════════════════════════════

// maxTestsPerReport bounds a single /test increment.
const maxTestsPerReport = 500

// TestHandler handles the /test command.
type TestHandler struct {
	recordCmd *command.RecordActivityHandler
	scores    *presenter.ScorePresenter
	rules     ledger.Rules
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(recordCmd *command.RecordActivityHandler, scores *presenter.ScorePresenter, rules ledger.Rules) *TestHandler {
	return &TestHandler{recordCmd: recordCmd, scores: scores, rules: rules}
}

// TestRequest contains the parsed /test command data.
type TestRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64

	// DisplayName is the user's current name.
	DisplayName string

	// Args is the raw argument string after the command.
	Args string
}

// Handle processes the /test command.
func (h *TestHandler) Handle(ctx context.Context, req TestRequest) (*Response, error) {
	arg := strings.TrimSpace(req.Args)
	if arg == "" {
		return &Response{Text: presenter.UsageTests()}, nil
	}

	tests, err := strconv.Atoi(arg)
	if err != nil || tests < 0 || tests > maxTestsPerReport {
		return &Response{Text: presenter.InvalidNumber()}, nil
	}
	if tests == 0 {
		return &Response{Text: presenter.UsageTests()}, nil
	}

	res, err := h.recordCmd.Handle(ctx, command.RecordActivityCommand{
		UserID:      strconv.FormatInt(req.UserID, 10),
		DisplayName: req.DisplayName,
		AddTests:    tests,
	})
	if err != nil {
		return &Response{Text: presenter.GenericError()}, err
	}

	return &Response{Text: h.scores.TestsRecorded(tests, res.Delta, res.Points, h.rules.TestBlockSize)}, nil
}
