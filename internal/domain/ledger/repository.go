package ledger

import (
	"context"
	"time"
)

// RollupKind names a rolling window for period markers.
type RollupKind string

const (
	// RollupWeekly marks the weekly window.
	RollupWeekly RollupKind = "weekly"

	// RollupMonthly marks the monthly window.
	RollupMonthly RollupKind = "monthly"
)

// DailyStanding is one user's points for a single date, as collected by the
// daily rollup. FirstSeenAt carries the stable tie-break order.
type DailyStanding struct {
	UserID      UserID
	DisplayName string
	Points      int
	FirstSeenAt time.Time
}

// TotalsStanding is one user's rolling totals, as collected by the weekly and
// monthly rollups and the leaderboard query.
type TotalsStanding struct {
	UserID      UserID
	DisplayName string
	Weekly      int
	Monthly     int
	FirstSeenAt time.Time
}

// BonusAward is one user's bonus amounts to apply during the daily rollup.
type BonusAward struct {
	UserID  UserID
	Weekly  int
	Monthly int
}

// Repository is the durable ledger store. Implementations must make each method
// atomic: a method either fully persists its mutation or leaves the store
// untouched. Cross-method read-modify-write sequences are serialized by the
// application-level ledger lock, not here.
type Repository interface {
	// GetUser loads a participant's record (without daily entries).
	// Returns ErrUserNotFound if the participant has never reported.
	GetUser(ctx context.Context, id UserID) (*UserRecord, error)

	// GetEntry loads the daily entry for (user, date key).
	// Returns ErrEntryNotFound if no activity was recorded for that date.
	GetEntry(ctx context.Context, id UserID, date string) (*DailyEntry, error)

	// SaveActivity atomically persists a record-activity mutation: the user
	// row (display name, adjusted totals) together with the upserted daily
	// entry. Creates the user row if it does not exist yet.
	SaveActivity(ctx context.Context, rec *UserRecord, date string, entry *DailyEntry) error

	// StandingsOn returns every user with a daily entry on the given date,
	// ordered by points descending, first-seen ascending.
	StandingsOn(ctx context.Context, date string) ([]DailyStanding, error)

	// PointsOn returns the recorded points per user for the given date.
	// Users without an entry are simply absent from the map.
	PointsOn(ctx context.Context, date string) (map[UserID]int, error)

	// Totals returns the rolling totals of every participant, ordered by
	// first-seen ascending. Ranking order is applied by the caller.
	Totals(ctx context.Context) ([]TotalsStanding, error)

	// HasBonusDate reports whether daily bonuses were already distributed for
	// the date. This is the idempotency gate of the daily rollup.
	HasBonusDate(ctx context.Context, date string) (bool, error)

	// ApplyDailyAwards atomically applies all daily bonus awards and records
	// the date into the bonus ledger. Fails without side effects if the date
	// is already present.
	ApplyDailyAwards(ctx context.Context, date string, awards []BonusAward) error

	// RollupMark returns the last completed period key for the given window
	// ("" if the window has never rolled up).
	RollupMark(ctx context.Context, kind RollupKind) (string, error)

	// ApplyWeeklyReset atomically pays the weekly winner's bonus into their
	// monthly total, zeroes every weekly total, and stores the period mark.
	// A zero winnerID skips the bonus (empty week).
	ApplyWeeklyReset(ctx context.Context, period string, winnerID UserID, monthlyBonus int) error

	// ApplyMonthlyReset atomically zeroes every monthly total and stores the
	// period mark.
	ApplyMonthlyReset(ctx context.Context, period string) error
}
