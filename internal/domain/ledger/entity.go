// Package ledger contains the activity ledger domain model: per-user daily study
// records, the derived point totals, and the rolling weekly/monthly windows.
// This is the core of the business logic - there are no external dependencies here.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID is the opaque stable key of a participant (the Telegram user id,
// rendered as a string; the ledger itself never interprets it).
type UserID string

// IsValid checks that the user id is non-empty and printable.
func (id UserID) IsValid() bool {
	s := string(id)
	return len(s) > 0 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string form of the id.
func (id UserID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// DailyEntry is one user's cumulative activity for a single calendar date.
// Points is derived: it always equals Rules.Score(Hours, Tests, Presence) and is
// never mutated independently.
type DailyEntry struct {
	// Hours is the cumulative study hours reported for the date.
	Hours int

	// Tests is the cumulative practice-test count reported for the date.
	Tests int

	// Presence is true once daily presence has been recorded. Monotonic:
	// once set it is never cleared for the rest of the date.
	Presence bool

	// Points is the derived score for the date.
	Points int
}

// Apply folds an activity delta into the entry and recomputes Points.
// It returns the signed point difference (new − old), which the caller must
// propagate into both rolling totals so they never drift.
func (e *DailyEntry) Apply(rules Rules, addHours, addTests int, setPresence bool) int {
	oldPoints := e.Points

	e.Hours += addHours
	e.Tests += addTests
	e.Presence = e.Presence || setPresence
	e.Points = rules.Score(e.Hours, e.Tests, e.Presence)

	return e.Points - oldPoints
}

// ══════════════════════════════════════════════════════════════════════════════
// USER RECORD
// ══════════════════════════════════════════════════════════════════════════════

// UserRecord is the aggregate root: one participant with their rolling totals.
// Daily entries are stored per (user, date) and loaded on demand; the record
// itself only carries the running windows.
type UserRecord struct {
	// ID is the stable participant key.
	ID UserID

	// DisplayName is the last-seen human-readable name, refreshed on every
	// recorded activity.
	DisplayName string

	// WeeklyTotal is the running point sum since the last weekly rollup.
	// Adjusted only by signed deltas and rollup bonuses, zeroed only by the
	// weekly rollup itself.
	WeeklyTotal int

	// MonthlyTotal is the running point sum since the last monthly rollup.
	MonthlyTotal int

	// CreatedAt is when the user first recorded any activity. It doubles as
	// the stable first-seen tie-break for all rankings.
	CreatedAt time.Time

	// UpdatedAt is the time of the last mutation.
	UpdatedAt time.Time
}

// NewUserRecord creates a record for a participant seen for the first time.
func NewUserRecord(id UserID, displayName string, now time.Time) (*UserRecord, error) {
	if !id.IsValid() {
		return nil, ErrInvalidUserID
	}
	return &UserRecord{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyDelta adjusts both rolling totals by the same signed point delta.
func (u *UserRecord) ApplyDelta(delta int, now time.Time) {
	u.WeeklyTotal += delta
	u.MonthlyTotal += delta
	u.UpdatedAt = now
}

// Rename refreshes the display name to the latest supplied value.
func (u *UserRecord) Rename(displayName string, now time.Time) {
	if displayName != "" {
		u.DisplayName = displayName
	}
	u.UpdatedAt = now
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUserNotFound is returned when a participant has no ledger record yet.
	ErrUserNotFound = errors.New("ledger: user not found")

	// ErrEntryNotFound is returned when there is no daily entry for a date.
	ErrEntryNotFound = errors.New("ledger: daily entry not found")

	// ErrInvalidUserID is returned for an empty or malformed user id.
	ErrInvalidUserID = errors.New("ledger: invalid user id")

	// ErrNegativeActivity is returned for negative hour/test increments.
	ErrNegativeActivity = errors.New("ledger: activity amounts cannot be negative")

	// ErrAlreadyReported marks a duplicate same-day submission in
	// once-per-day mode. Use errors.Is; the concrete value is an
	// *AlreadyReportedError carrying the recorded points.
	ErrAlreadyReported = errors.New("ledger: already reported today")
)

// AlreadyReportedError rejects a duplicate same-day submission while telling
// the caller what was already recorded, so the reply can echo it.
type AlreadyReportedError struct {
	// Points already recorded for today.
	Points int
}

// Error implements the error interface.
func (e *AlreadyReportedError) Error() string {
	return fmt.Sprintf("ledger: already reported today (%d points)", e.Points)
}

// Is lets errors.Is(err, ErrAlreadyReported) match.
func (e *AlreadyReportedError) Is(target error) bool {
	return target == ErrAlreadyReported
}
