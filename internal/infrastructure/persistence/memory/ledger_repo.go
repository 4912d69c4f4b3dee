// Package memory provides an in-memory ledger.Repository for tests and local
// development. Semantics mirror the PostgreSQL implementation: every method is
// atomic and the bonus-date insert doubles as the exactly-once gate.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
)

// LedgerRepository implements ledger.Repository in memory.
type LedgerRepository struct {
	mu sync.RWMutex

	users   map[ledger.UserID]*ledger.UserRecord
	entries map[entryKey]*ledger.DailyEntry
	bonuses map[string]time.Time
	marks   map[ledger.RollupKind]string
}

type entryKey struct {
	user ledger.UserID
	date string
}

// NewLedgerRepository creates an empty repository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		users:   make(map[ledger.UserID]*ledger.UserRecord),
		entries: make(map[entryKey]*ledger.DailyEntry),
		bonuses: make(map[string]time.Time),
		marks:   make(map[ledger.RollupKind]string),
	}
}

// GetUser loads a participant's record.
func (r *LedgerRepository) GetUser(_ context.Context, id ledger.UserID) (*ledger.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[id]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	copied := *rec
	return &copied, nil
}

// GetEntry loads the daily entry for (user, date).
func (r *LedgerRepository) GetEntry(_ context.Context, id ledger.UserID, date string) (*ledger.DailyEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[entryKey{user: id, date: date}]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

// SaveActivity stores the user record and the daily entry together.
func (r *LedgerRepository) SaveActivity(_ context.Context, rec *ledger.UserRecord, date string, entry *ledger.DailyEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recCopy := *rec
	entryCopy := *entry
	r.users[rec.ID] = &recCopy
	r.entries[entryKey{user: rec.ID, date: date}] = &entryCopy
	return nil
}

// StandingsOn returns the day's standings, points descending, first-seen
// ascending.
func (r *LedgerRepository) StandingsOn(_ context.Context, date string) ([]ledger.DailyStanding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var standings []ledger.DailyStanding
	for key, entry := range r.entries {
		if key.date != date {
			continue
		}
		rec, ok := r.users[key.user]
		if !ok {
			continue
		}
		standings = append(standings, ledger.DailyStanding{
			UserID:      key.user,
			DisplayName: rec.DisplayName,
			Points:      entry.Points,
			FirstSeenAt: rec.CreatedAt,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].FirstSeenAt.Before(standings[j].FirstSeenAt)
	})

	return standings, nil
}

// PointsOn returns the recorded points per user for the date.
func (r *LedgerRepository) PointsOn(_ context.Context, date string) (map[ledger.UserID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	points := make(map[ledger.UserID]int)
	for key, entry := range r.entries {
		if key.date == date {
			points[key.user] = entry.Points
		}
	}
	return points, nil
}

// Totals returns every participant's rolling totals, first-seen ascending.
func (r *LedgerRepository) Totals(_ context.Context) ([]ledger.TotalsStanding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make([]ledger.TotalsStanding, 0, len(r.users))
	for id, rec := range r.users {
		totals = append(totals, ledger.TotalsStanding{
			UserID:      id,
			DisplayName: rec.DisplayName,
			Weekly:      rec.WeeklyTotal,
			Monthly:     rec.MonthlyTotal,
			FirstSeenAt: rec.CreatedAt,
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].FirstSeenAt.Before(totals[j].FirstSeenAt)
	})

	return totals, nil
}

// HasBonusDate reports whether the daily bonuses were already distributed.
func (r *LedgerRepository) HasBonusDate(_ context.Context, date string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bonuses[date]
	return ok, nil
}

// ApplyDailyAwards applies the bonus awards and records the date.
func (r *LedgerRepository) ApplyDailyAwards(_ context.Context, date string, awards []ledger.BonusAward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bonuses[date]; ok {
		return fmt.Errorf("memory: bonuses already awarded for %s", date)
	}

	now := time.Now()
	for _, a := range awards {
		rec, ok := r.users[a.UserID]
		if !ok {
			return fmt.Errorf("memory: award for unknown user %s", a.UserID)
		}
		rec.WeeklyTotal += a.Weekly
		rec.MonthlyTotal += a.Monthly
		rec.UpdatedAt = now
	}

	r.bonuses[date] = now
	return nil
}

// RollupMark returns the last completed period key for the window.
func (r *LedgerRepository) RollupMark(_ context.Context, kind ledger.RollupKind) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.marks[kind], nil
}

// ApplyWeeklyReset pays the winner's bonus, zeroes weekly totals, and stores
// the period mark.
func (r *LedgerRepository) ApplyWeeklyReset(_ context.Context, period string, winnerID ledger.UserID, monthlyBonus int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if winnerID != "" && monthlyBonus != 0 {
		winner, ok := r.users[winnerID]
		if !ok {
			return fmt.Errorf("memory: weekly winner %s not found", winnerID)
		}
		winner.MonthlyTotal += monthlyBonus
	}

	for _, rec := range r.users {
		rec.WeeklyTotal = 0
		rec.UpdatedAt = now
	}

	r.marks[ledger.RollupWeekly] = period
	return nil
}

// ApplyMonthlyReset zeroes monthly totals and stores the period mark.
func (r *LedgerRepository) ApplyMonthlyReset(_ context.Context, period string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, rec := range r.users {
		rec.MonthlyTotal = 0
		rec.UpdatedAt = now
	}

	r.marks[ledger.RollupMonthly] = period
	return nil
}
