package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
)

func TestParseCronExpression(t *testing.T) {
	ce, err := ParseCronExpression("0 22 * * *")
	require.NoError(t, err)
	assert.Equal(t, "0 22 * * *", ce.String())

	_, err = ParseCronExpression("0 22 * *")
	assert.Error(t, err, "four fields")

	_, err = ParseCronExpression("60 22 * * *")
	assert.Error(t, err, "minute out of range")

	_, err = ParseCronExpression("0 25 * * *")
	assert.Error(t, err, "hour out of range")

	_, err = ParseCronExpression("x 22 * * *")
	assert.Error(t, err)
}

func TestCronExpression_NextDaily(t *testing.T) {
	ce := MustParseCronExpression("0 22 * * *")

	// Before the fire time: same day.
	at := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 22, 0, 0, 0, time.UTC), ce.Next(at))

	// Exactly at the fire time: strictly after means tomorrow.
	at = time.Date(2025, 9, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 2, 22, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestCronExpression_FiringMatchesLedgerDateKey(t *testing.T) {
	ce := MustParseCronExpression("0 22 * * *")

	// The scheduler evaluates Next on Tehran-zone times, so the 22:00
	// firing lands on the same calendar day the ledger books entries under.
	at := timeutil.DateTime(2025, 9, 1, 21, 30, 0)
	next := ce.Next(at)

	assert.Equal(t, 22, next.Hour())
	assert.Equal(t, "2025-09-01", timeutil.DateKey(next))
}

func TestCronExpression_NextWeekly(t *testing.T) {
	// Friday 22:00. 2025-09-01 is a Monday; the next Friday is 2025-09-05.
	ce := MustParseCronExpression("0 22 * * 5")

	at := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 5, 22, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestCronExpression_NextMonthly(t *testing.T) {
	// The 1st of each month at 00:05; past it in September means October.
	ce := MustParseCronExpression("5 0 1 * *")

	at := time.Date(2025, 9, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 5, 0, 0, time.UTC), ce.Next(at))
}

func TestCronExpression_StepAndList(t *testing.T) {
	ce := MustParseCronExpression("*/15 8,20 * * *")

	at := time.Date(2025, 9, 1, 8, 16, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC), ce.Next(at))

	at = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 20, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestCronExpression_Range(t *testing.T) {
	ce, err := ParseCronExpression("0 9-11 * * *")
	require.NoError(t, err)

	at := time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestMustParseCronExpression_PanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { MustParseCronExpression("bad") })
}
