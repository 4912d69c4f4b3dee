// Package timeutil provides timezone utilities for the Tehran timezone (UTC+3:30).
// All study reports and rollup triggers in Hamdars Study Hub are evaluated in
// local Tehran wall-clock time. Iran abolished DST in September 2022, so a fixed
// zone is correct year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// TehranTZ is the Tehran timezone (UTC+3:30, no DST since 2022).
var TehranTZ = time.FixedZone("Asia/Tehran", 3*60*60+30*60)

// DateLayout is the canonical calendar-date key layout used across the ledger.
const DateLayout = "2006-01-02"

// Now returns the current time in Tehran timezone.
func Now() time.Time {
	return time.Now().In(TehranTZ)
}

// ToTehran converts a time to Tehran timezone.
func ToTehran(t time.Time) time.Time {
	return t.In(TehranTZ)
}

// Date creates a time in Tehran timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, TehranTZ)
}

// DateTime creates a time in Tehran timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, TehranTZ)
}

// DateKey returns the YYYY-MM-DD key for a time, evaluated in Tehran timezone.
// This is the key format of daily entries and the bonus ledger.
func DateKey(t time.Time) string {
	return ToTehran(t).Format(DateLayout)
}

// PreviousDateKey returns the YYYY-MM-DD key for the calendar day before t.
func PreviousDateKey(t time.Time) string {
	return DateKey(ToTehran(t).AddDate(0, 0, -1))
}

// ParseDateKey parses a YYYY-MM-DD key into a Tehran-zone midnight time.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, TehranTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date key %q: %w", key, err)
	}
	return t, nil
}

// WeekKey returns the ISO-week period key (e.g. "2025-W36") for a time.
// Used by the weekly rollup mark so a duplicate trigger in the same week is inert.
func WeekKey(t time.Time) string {
	year, week := ToTehran(t).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the calendar-month period key (e.g. "2025-09") for a time.
func MonthKey(t time.Time) string {
	return ToTehran(t).Format("2006-01")
}

// StartOfDay returns the start of the day (00:00:00) in Tehran timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToTehran(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, TehranTZ)
}

// StartOfWeek returns the start of the week (Saturday 00:00:00) in Tehran timezone.
// The Iranian week runs Saturday through Friday; the weekly rollup fires at the
// very end of it, Friday evening.
func StartOfWeek(t time.Time) time.Time {
	local := ToTehran(t)
	daysSinceSaturday := (int(local.Weekday()) + 1) % 7 // Saturday = 0
	return StartOfDay(local.AddDate(0, 0, -daysSinceSaturday))
}

// StartOfMonth returns the start of the month in Tehran timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToTehran(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, TehranTZ)
}

// SameDay reports whether two times fall on the same Tehran calendar day.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// FormatDateTime formats a time for log lines and announcement footers.
func FormatDateTime(t time.Time) string {
	return ToTehran(t).Format("2006-01-02 15:04")
}
