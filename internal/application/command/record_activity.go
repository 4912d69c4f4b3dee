// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Applies a reported study delta (hours, tests, presence) to the caller's
// current-day entry, recomputes the derived points, and propagates the signed
// point difference into both rolling totals.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains one reported activity delta.
type RecordActivityCommand struct {
	// UserID is the participant key (Telegram user id as string).
	UserID string

	// DisplayName is the reporter's current name; stored unconditionally.
	DisplayName string

	// AddHours is the study-hour increment (>= 0).
	AddHours int

	// AddTests is the practice-test increment (>= 0).
	AddTests int

	// SetPresence records daily presence. Monotonic - presence is never
	// cleared once set for a date.
	SetPresence bool

	// CorrelationID for tracing; generated when empty.
	CorrelationID string
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if !ledger.UserID(c.UserID).IsValid() {
		return shared.NewDomainError("ledger", "RecordActivity", shared.ErrInvalidID, "invalid user id")
	}
	if c.AddHours < 0 || c.AddTests < 0 {
		return shared.WrapError("ledger", "RecordActivity", shared.ErrNegativeValue,
			"hours and tests must be non-negative", ledger.ErrNegativeActivity)
	}
	if c.AddHours == 0 && c.AddTests == 0 && !c.SetPresence {
		return shared.NewDomainError("ledger", "RecordActivity", shared.ErrInvalidInput, "empty activity report")
	}
	return nil
}

// presenceOnly reports whether the command carries nothing but a presence flag.
func (c RecordActivityCommand) presenceOnly() bool {
	return c.SetPresence && c.AddHours == 0 && c.AddTests == 0
}

// RecordActivityResult contains the outcome of recording an activity.
type RecordActivityResult struct {
	// Success indicates the activity was persisted.
	Success bool

	// Date is the YYYY-MM-DD key the activity was booked under.
	Date string

	// Points is the post-update point total for the date.
	Points int

	// Delta is the signed point difference applied to both rolling totals.
	Delta int

	// Registered indicates the user record was created by this call.
	Registered bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityConfig contains configuration for the handler.
type RecordActivityConfig struct {
	// Rules is the scoring rule set.
	Rules ledger.Rules

	// PresenceOncePerDay rejects a presence-only report when today's entry
	// already exists, returning the recorded points with the rejection.
	PresenceOncePerDay bool

	// Now supplies the wall clock; defaults to timeutil.Now.
	Now func() time.Time
}

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	repo   ledger.Repository
	lock   *LedgerLock
	events shared.EventPublisher
	cache  leaderboard.Cache

	rules        ledger.Rules
	presenceOnce bool
	now          func() time.Time
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
// The events publisher and cache are optional.
func NewRecordActivityHandler(
	repo ledger.Repository,
	lock *LedgerLock,
	events shared.EventPublisher,
	cache leaderboard.Cache,
	cfg RecordActivityConfig,
) *RecordActivityHandler {
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	return &RecordActivityHandler{
		repo:         repo,
		lock:         lock,
		events:       events,
		cache:        cache,
		rules:        cfg.Rules,
		presenceOnce: cfg.PresenceOncePerDay,
		now:          cfg.Now,
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	now := h.now()
	today := timeutil.DateKey(now)

	var (
		result    *RecordActivityResult
		published []shared.Event
	)

	err := h.lock.Do(func() error {
		rec, registered, err := h.loadOrCreateUser(ctx, cmd, now)
		if err != nil {
			return err
		}

		entry, entryExists, err := h.loadEntry(ctx, rec.ID, today)
		if err != nil {
			return err
		}

		if cmd.presenceOnly() && h.presenceOnce && entryExists {
			return &ledger.AlreadyReportedError{Points: entry.Points}
		}

		delta := entry.Apply(h.rules, cmd.AddHours, cmd.AddTests, cmd.SetPresence)
		rec.ApplyDelta(delta, now)
		rec.Rename(cmd.DisplayName, now)

		// The repository persists the user row and the entry in one
		// transaction; on failure nothing is committed and nothing here
		// survives the call, so memory and storage cannot diverge.
		if err := h.repo.SaveActivity(ctx, rec, today, entry); err != nil {
			return shared.WrapError("ledger", "RecordActivity", shared.ErrExternalService, "persist failed", err)
		}

		if registered {
			ev := shared.NewUserRegisteredEvent(cmd.UserID, cmd.DisplayName)
			ev.BaseEvent = ev.BaseEvent.WithCorrelationID(cmd.CorrelationID)
			published = append(published, ev)
		}
		ev := shared.NewActivityRecordedEvent(cmd.UserID, rec.DisplayName, today,
			cmd.AddHours, cmd.AddTests, cmd.SetPresence, entry.Points, delta)
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		published = append(published, ev)

		result = &RecordActivityResult{
			Success:    true,
			Date:       today,
			Points:     entry.Points,
			Delta:      delta,
			Registered: registered,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Outside the critical section: cache invalidation and event fan-out are
	// best effort and must not block a report on a slow subscriber.
	if h.cache != nil {
		_ = h.cache.Invalidate(ctx)
	}
	if h.events != nil {
		for _, ev := range published {
			_ = h.events.Publish(ev)
		}
	}

	return result, nil
}

// loadOrCreateUser fetches the user record, creating it on first activity.
func (h *RecordActivityHandler) loadOrCreateUser(ctx context.Context, cmd RecordActivityCommand, now time.Time) (*ledger.UserRecord, bool, error) {
	rec, err := h.repo.GetUser(ctx, ledger.UserID(cmd.UserID))
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, ledger.ErrUserNotFound) {
		return nil, false, fmt.Errorf("record_activity: load user: %w", err)
	}

	rec, err = ledger.NewUserRecord(ledger.UserID(cmd.UserID), cmd.DisplayName, now)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// loadEntry fetches today's entry, defaulting to a zero entry when absent.
func (h *RecordActivityHandler) loadEntry(ctx context.Context, id ledger.UserID, date string) (*ledger.DailyEntry, bool, error) {
	entry, err := h.repo.GetEntry(ctx, id, date)
	if err == nil {
		return entry, true, nil
	}
	if !errors.Is(err, ledger.ErrEntryNotFound) {
		return nil, false, fmt.Errorf("record_activity: load entry: %w", err)
	}
	return &ledger.DailyEntry{}, false, nil
}
