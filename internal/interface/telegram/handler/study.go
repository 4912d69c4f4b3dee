package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY HANDLER
// Handles /study N - records N study hours for today.
// ══════════════════════════════════════════════════════════════════════════════

// maxHoursPerReport bounds a single /study increment; a day has 24 hours.
const maxHoursPerReport = 24

// StudyHandler handles the /study command.
type StudyHandler struct {
	recordCmd *command.RecordActivityHandler
	scores    *presenter.ScorePresenter
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(recordCmd *command.RecordActivityHandler, scores *presenter.ScorePresenter) *StudyHandler {
	return &StudyHandler{recordCmd: recordCmd, scores: scores}
}

// StudyRequest contains the parsed /study command data.
type StudyRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64

	// DisplayName is the user's current name.
	DisplayName string

	// Args is the raw argument string after the command.
	Args string
}

// Handle processes the /study command.
func (h *StudyHandler) Handle(ctx context.Context, req StudyRequest) (*Response, error) {
	arg := strings.TrimSpace(req.Args)
	if arg == "" {
		return &Response{Text: presenter.UsageStudy()}, nil
	}

	hours, err := strconv.Atoi(arg)
	if err != nil || hours < 0 || hours > maxHoursPerReport {
		return &Response{Text: presenter.InvalidNumber()}, nil
	}
	if hours == 0 {
		return &Response{Text: presenter.UsageStudy()}, nil
	}

	res, err := h.recordCmd.Handle(ctx, command.RecordActivityCommand{
		UserID:      strconv.FormatInt(req.UserID, 10),
		DisplayName: req.DisplayName,
		AddHours:    hours,
	})
	if err != nil {
		return &Response{Text: presenter.GenericError()}, err
	}

	return &Response{Text: h.scores.StudyRecorded(hours, res.Delta, res.Points)}, nil
}
