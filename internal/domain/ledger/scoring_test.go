package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Score(t *testing.T) {
	rules := DefaultRules()

	// 3 hours and 45 tests: 3*10 + (45/20)*5 = 30 + 10 = 40.
	assert.Equal(t, 40, rules.Score(3, 45, false))
	assert.Equal(t, 50, rules.Score(3, 45, true))

	// Partial test blocks earn nothing.
	assert.Equal(t, 0, rules.Score(0, 19, false))
	assert.Equal(t, 5, rules.Score(0, 20, false))
	assert.Equal(t, 5, rules.Score(0, 39, false))

	// Presence alone.
	assert.Equal(t, 10, rules.Score(0, 0, true))
	assert.Equal(t, 0, rules.Score(0, 0, false))
}

func TestRules_Score_CustomRules(t *testing.T) {
	rules := Rules{
		PointsPerHour:      7,
		TestBlockSize:      10,
		PointsPerTestBlock: 3,
		PresencePoints:     4,
	}

	assert.Equal(t, 2*7+3*3+4, rules.Score(2, 30, true))
}

func TestRules_IncrementHelpers(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, 20, rules.HourPoints(2))
	assert.Equal(t, 0, rules.TestPoints(19))
	assert.Equal(t, 10, rules.TestPoints(40))
}

func TestDailyEntry_Apply_ReturnsDelta(t *testing.T) {
	rules := DefaultRules()
	entry := &DailyEntry{}

	delta := entry.Apply(rules, 2, 0, false)
	assert.Equal(t, 20, delta)
	assert.Equal(t, 20, entry.Points)

	// Same-day reports accumulate; the delta reflects only the new increment.
	delta = entry.Apply(rules, 1, 25, true)
	assert.Equal(t, 3, entry.Hours)
	assert.Equal(t, 25, entry.Tests)
	assert.True(t, entry.Presence)
	assert.Equal(t, 45, entry.Points) // 30 + 5 + 10
	assert.Equal(t, 25, delta)
}

func TestDailyEntry_Apply_BlockBoundary(t *testing.T) {
	rules := DefaultRules()
	entry := &DailyEntry{}

	// 15 tests score nothing; the next 5 complete a block worth 5 points.
	assert.Equal(t, 0, entry.Apply(rules, 0, 15, false))
	assert.Equal(t, 5, entry.Apply(rules, 0, 5, false))
}

func TestDailyEntry_PresenceIsMonotonic(t *testing.T) {
	rules := DefaultRules()
	entry := &DailyEntry{}

	entry.Apply(rules, 0, 0, true)
	assert.True(t, entry.Presence)

	// A later report without the flag does not clear presence.
	delta := entry.Apply(rules, 1, 0, false)
	assert.True(t, entry.Presence)
	assert.Equal(t, 10, delta)
	assert.Equal(t, 20, entry.Points)
}

func TestDailyEntry_RepeatedPresenceIsNeutral(t *testing.T) {
	rules := DefaultRules()
	entry := &DailyEntry{}

	entry.Apply(rules, 0, 0, true)
	delta := entry.Apply(rules, 0, 0, true)
	assert.Equal(t, 0, delta)
	assert.Equal(t, 10, entry.Points)
}
