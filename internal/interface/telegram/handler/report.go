package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLER
// Handles /report - records daily presence. In once-per-day mode a second
// /report is rejected, echoing the points already on the books.
// ══════════════════════════════════════════════════════════════════════════════

// ReportHandler handles the /report command.
type ReportHandler struct {
	recordCmd *command.RecordActivityHandler
	scores    *presenter.ScorePresenter
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(recordCmd *command.RecordActivityHandler, scores *presenter.ScorePresenter) *ReportHandler {
	return &ReportHandler{recordCmd: recordCmd, scores: scores}
}

// ReportRequest contains the parsed /report command data.
type ReportRequest struct {
	// UserID is the user's Telegram ID.
	UserID int64

	// DisplayName is the user's current name.
	DisplayName string
}

// Handle processes the /report command.
func (h *ReportHandler) Handle(ctx context.Context, req ReportRequest) (*Response, error) {
	res, err := h.recordCmd.Handle(ctx, command.RecordActivityCommand{
		UserID:      strconv.FormatInt(req.UserID, 10),
		DisplayName: req.DisplayName,
		SetPresence: true,
	})
	if err != nil {
		var already *ledger.AlreadyReportedError
		if errors.As(err, &already) {
			return &Response{Text: h.scores.AlreadyReported(already.Points)}, nil
		}
		return &Response{Text: presenter.GenericError()}, err
	}

	return &Response{Text: h.scores.PresenceRecorded(res.Delta, res.Points)}, nil
}
