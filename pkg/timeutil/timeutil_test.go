package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateKey(t *testing.T) {
	// 2025-09-01 23:50 Tehran is still 2025-09-01 even though UTC has moved on.
	local := DateTime(2025, 9, 1, 23, 50, 0)
	assert.Equal(t, "2025-09-01", DateKey(local))
	assert.Equal(t, "2025-09-01", DateKey(local.UTC()))
}

func TestDateKey_UTCBoundary(t *testing.T) {
	// 21:00 UTC is 00:30 next day in Tehran.
	utc := time.Date(2025, 9, 1, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-09-02", DateKey(utc))
}

func TestPreviousDateKey(t *testing.T) {
	assert.Equal(t, "2025-08-31", PreviousDateKey(Date(2025, 9, 1)))
	assert.Equal(t, "2025-02-28", PreviousDateKey(Date(2025, 3, 1)))
	assert.Equal(t, "2024-02-29", PreviousDateKey(Date(2024, 3, 1)))
}

func TestParseDateKey(t *testing.T) {
	parsed, err := ParseDateKey("2025-09-01")
	assert.NoError(t, err)
	assert.Equal(t, Date(2025, 9, 1), parsed)

	_, err = ParseDateKey("01/09/2025")
	assert.Error(t, err)
}

func TestWeekAndMonthKeys(t *testing.T) {
	monday := Date(2025, 9, 1) // ISO week 36
	assert.Equal(t, "2025-W36", WeekKey(monday))
	assert.Equal(t, "2025-09", MonthKey(monday))
}

func TestStartOfWeek_SaturdayStart(t *testing.T) {
	// 2025-09-03 is a Wednesday; the Iranian week began on Saturday 2025-08-30.
	wednesday := Date(2025, 9, 3)
	assert.Equal(t, Date(2025, 8, 30), StartOfWeek(wednesday))

	// A Saturday is its own week start.
	saturday := Date(2025, 8, 30)
	assert.Equal(t, saturday, StartOfWeek(saturday))

	// Friday belongs to the week that started six days earlier.
	friday := Date(2025, 9, 5)
	assert.Equal(t, Date(2025, 8, 30), StartOfWeek(friday))
}

func TestSameDay(t *testing.T) {
	a := DateTime(2025, 9, 1, 0, 10, 0)
	b := DateTime(2025, 9, 1, 23, 59, 0)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.Add(time.Minute)))
}
