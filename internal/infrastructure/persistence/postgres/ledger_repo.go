package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
)

// LedgerRepository implements ledger.Repository using PostgreSQL.
// Each method runs in a single transaction; cross-method sequences are
// serialized by the application-level ledger lock.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// GetUser loads a participant's record.
func (r *LedgerRepository) GetUser(ctx context.Context, id ledger.UserID) (*ledger.UserRecord, error) {
	const query = `
		SELECT id, display_name, weekly_total, monthly_total, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	rec := &ledger.UserRecord{}
	var rawID string
	err := r.conn.QueryRow(ctx, query, id.String()).Scan(
		&rawID,
		&rec.DisplayName,
		&rec.WeeklyTotal,
		&rec.MonthlyTotal,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user %s: %w", id, err)
	}

	rec.ID = ledger.UserID(rawID)
	return rec, nil
}

// GetEntry loads the daily entry for (user, date).
func (r *LedgerRepository) GetEntry(ctx context.Context, id ledger.UserID, date string) (*ledger.DailyEntry, error) {
	const query = `
		SELECT hours, tests, presence, points
		FROM daily_entries
		WHERE user_id = $1 AND date = $2::date
	`

	entry := &ledger.DailyEntry{}
	err := r.conn.QueryRow(ctx, query, id.String(), date).Scan(
		&entry.Hours,
		&entry.Tests,
		&entry.Presence,
		&entry.Points,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get entry %s/%s: %w", id, date, err)
	}

	return entry, nil
}

// SaveActivity upserts the user row and the daily entry in one transaction.
func (r *LedgerRepository) SaveActivity(ctx context.Context, rec *ledger.UserRecord, date string, entry *ledger.DailyEntry) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		const upsertUser = `
			INSERT INTO users (id, display_name, weekly_total, monthly_total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				weekly_total = EXCLUDED.weekly_total,
				monthly_total = EXCLUDED.monthly_total,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.Exec(ctx, upsertUser,
			rec.ID.String(),
			rec.DisplayName,
			rec.WeeklyTotal,
			rec.MonthlyTotal,
			rec.CreatedAt,
			rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("postgres: upsert user %s: %w", rec.ID, err)
		}

		const upsertEntry = `
			INSERT INTO daily_entries (user_id, date, hours, tests, presence, points)
			VALUES ($1, $2::date, $3, $4, $5, $6)
			ON CONFLICT (user_id, date) DO UPDATE SET
				hours = EXCLUDED.hours,
				tests = EXCLUDED.tests,
				presence = EXCLUDED.presence,
				points = EXCLUDED.points
		`
		if _, err := tx.Exec(ctx, upsertEntry,
			rec.ID.String(),
			date,
			entry.Hours,
			entry.Tests,
			entry.Presence,
			entry.Points,
		); err != nil {
			return fmt.Errorf("postgres: upsert entry %s/%s: %w", rec.ID, date, err)
		}

		return nil
	})
}

// StandingsOn returns every user with a daily entry on the date, ordered by
// points descending, first-seen ascending.
func (r *LedgerRepository) StandingsOn(ctx context.Context, date string) ([]ledger.DailyStanding, error) {
	const query = `
		SELECT e.user_id, u.display_name, e.points, u.created_at
		FROM daily_entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.date = $1::date
		ORDER BY e.points DESC, u.created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: standings on %s: %w", date, err)
	}
	defer rows.Close()

	var standings []ledger.DailyStanding
	for rows.Next() {
		var (
			s     ledger.DailyStanding
			rawID string
		)
		if err := rows.Scan(&rawID, &s.DisplayName, &s.Points, &s.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("postgres: scan standing: %w", err)
		}
		s.UserID = ledger.UserID(rawID)
		standings = append(standings, s)
	}

	return standings, rows.Err()
}

// PointsOn returns the recorded points per user for the date.
func (r *LedgerRepository) PointsOn(ctx context.Context, date string) (map[ledger.UserID]int, error) {
	const query = `
		SELECT user_id, points
		FROM daily_entries
		WHERE date = $1::date
	`

	rows, err := r.conn.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: points on %s: %w", date, err)
	}
	defer rows.Close()

	points := make(map[ledger.UserID]int)
	for rows.Next() {
		var (
			rawID string
			p     int
		)
		if err := rows.Scan(&rawID, &p); err != nil {
			return nil, fmt.Errorf("postgres: scan points: %w", err)
		}
		points[ledger.UserID(rawID)] = p
	}

	return points, rows.Err()
}

// Totals returns the rolling totals of every participant, first-seen ascending.
func (r *LedgerRepository) Totals(ctx context.Context) ([]ledger.TotalsStanding, error) {
	const query = `
		SELECT id, display_name, weekly_total, monthly_total, created_at
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: totals: %w", err)
	}
	defer rows.Close()

	var totals []ledger.TotalsStanding
	for rows.Next() {
		var (
			t     ledger.TotalsStanding
			rawID string
		)
		if err := rows.Scan(&rawID, &t.DisplayName, &t.Weekly, &t.Monthly, &t.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("postgres: scan totals: %w", err)
		}
		t.UserID = ledger.UserID(rawID)
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// HasBonusDate reports whether daily bonuses were already distributed.
func (r *LedgerRepository) HasBonusDate(ctx context.Context, date string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bonus_dates WHERE date = $1::date)`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: bonus date check %s: %w", date, err)
	}
	return exists, nil
}

// ApplyDailyAwards applies all bonus awards and records the date into the
// bonus ledger in one transaction. The INSERT into bonus_dates doubles as the
// exactly-once gate: a concurrent duplicate hits the primary key and the whole
// transaction rolls back.
func (r *LedgerRepository) ApplyDailyAwards(ctx context.Context, date string, awards []ledger.BonusAward) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO bonus_dates (date) VALUES ($1::date)`, date); err != nil {
			return fmt.Errorf("postgres: record bonus date %s: %w", date, err)
		}

		const applyAward = `
			UPDATE users
			SET weekly_total = weekly_total + $2,
			    monthly_total = monthly_total + $3,
			    updated_at = NOW()
			WHERE id = $1
		`
		for _, a := range awards {
			if _, err := tx.Exec(ctx, applyAward, a.UserID.String(), a.Weekly, a.Monthly); err != nil {
				return fmt.Errorf("postgres: apply award to %s: %w", a.UserID, err)
			}
		}

		return nil
	})
	if IsUniqueViolation(err) {
		return fmt.Errorf("postgres: bonuses already awarded for %s: %w", date, err)
	}
	return err
}

// RollupMark returns the last completed period key for the window.
func (r *LedgerRepository) RollupMark(ctx context.Context, kind ledger.RollupKind) (string, error) {
	const query = `SELECT period FROM rollup_marks WHERE kind = $1`

	var period string
	err := r.conn.QueryRow(ctx, query, string(kind)).Scan(&period)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: rollup mark %s: %w", kind, err)
	}
	return period, nil
}

// ApplyWeeklyReset pays the winner's bonus into their monthly total, zeroes
// every weekly total, and stores the period mark, all in one transaction.
func (r *LedgerRepository) ApplyWeeklyReset(ctx context.Context, period string, winnerID ledger.UserID, monthlyBonus int) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if winnerID != "" && monthlyBonus != 0 {
			const payBonus = `
				UPDATE users
				SET monthly_total = monthly_total + $2, updated_at = NOW()
				WHERE id = $1
			`
			if _, err := tx.Exec(ctx, payBonus, winnerID.String(), monthlyBonus); err != nil {
				return fmt.Errorf("postgres: pay weekly bonus to %s: %w", winnerID, err)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET weekly_total = 0, updated_at = NOW()`); err != nil {
			return fmt.Errorf("postgres: reset weekly totals: %w", err)
		}

		if err := storeMark(ctx, tx, ledger.RollupWeekly, period); err != nil {
			return err
		}

		return nil
	})
}

// ApplyMonthlyReset zeroes every monthly total and stores the period mark.
func (r *LedgerRepository) ApplyMonthlyReset(ctx context.Context, period string) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET monthly_total = 0, updated_at = NOW()`); err != nil {
			return fmt.Errorf("postgres: reset monthly totals: %w", err)
		}

		return storeMark(ctx, tx, ledger.RollupMonthly, period)
	})
}

func storeMark(ctx context.Context, tx pgx.Tx, kind ledger.RollupKind, period string) error {
	const upsertMark = `
		INSERT INTO rollup_marks (kind, period, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind) DO UPDATE SET
			period = EXCLUDED.period,
			completed_at = EXCLUDED.completed_at
	`
	if _, err := tx.Exec(ctx, upsertMark, string(kind), period, time.Now().UTC()); err != nil {
		return fmt.Errorf("postgres: store %s mark %s: %w", kind, period, err)
	}
	return nil
}
