// Package postgres implements the PostgreSQL persistence layer for the study
// ledger.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create the activity ledger tables
-- Version: 001

-- One row per participant, carrying the rolling windows. created_at doubles
-- as the stable first-seen tie-break for rankings.
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    weekly_total INTEGER NOT NULL DEFAULT 0,
    monthly_total INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_weekly_total ON users(weekly_total DESC);
CREATE INDEX IF NOT EXISTS idx_users_monthly_total ON users(monthly_total DESC);

-- One row per (participant, calendar date) with the cumulative activity and
-- the derived points for that date.
CREATE TABLE IF NOT EXISTS daily_entries (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    hours INTEGER NOT NULL DEFAULT 0,
    tests INTEGER NOT NULL DEFAULT 0,
    presence BOOLEAN NOT NULL DEFAULT FALSE,
    points INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (user_id, date),
    CONSTRAINT valid_hours CHECK (hours >= 0),
    CONSTRAINT valid_tests CHECK (tests >= 0),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_daily_entries_date ON daily_entries(date, points DESC);

-- Dates for which the daily bonuses were already distributed. The presence of
-- a date here is the exactly-once gate of the daily rollup.
CREATE TABLE IF NOT EXISTS bonus_dates (
    date DATE PRIMARY KEY,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Last completed period per rollup window ('weekly' -> '2025-W36',
-- 'monthly' -> '2025-09'). Guards the weekly/monthly resets against
-- duplicate triggers within one period.
CREATE TABLE IF NOT EXISTS rollup_marks (
    kind TEXT PRIMARY KEY,
    period TEXT NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('weekly', 'monthly'))
);
`

const migration001Down = `
DROP TABLE IF EXISTS rollup_marks;
DROP TABLE IF EXISTS bonus_dates;
DROP TABLE IF EXISTS daily_entries;
DROP TABLE IF EXISTS users;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_ledger",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}
