package ledger

// Scoring and bonus magnitudes. The community has run several variants of these
// numbers over time, so they are configuration with named defaults rather than
// hard-coded law; the rest of the ledger only ever sees a Rules value.
const (
	DefaultPointsPerHour      = 10 // each reported study hour
	DefaultTestBlockSize      = 20 // practice tests per scoring block
	DefaultPointsPerTestBlock = 5  // points per full block of tests
	DefaultPresencePoints     = 10 // flat daily presence bonus
	DefaultDailyTopBonus      = 10 // rank-1 of the daily ranking
	DefaultProgressBonus      = 5  // improved over yesterday
	DefaultWeeklyTopBonus     = 20 // rank-1 of the weekly ranking, paid into monthly
)

// Rules holds the scoring formula parameters and bonus magnitudes.
type Rules struct {
	PointsPerHour      int
	TestBlockSize      int
	PointsPerTestBlock int
	PresencePoints     int
	DailyTopBonus      int
	ProgressBonus      int
	WeeklyTopBonus     int
}

// DefaultRules returns the canonical rule set.
func DefaultRules() Rules {
	return Rules{
		PointsPerHour:      DefaultPointsPerHour,
		TestBlockSize:      DefaultTestBlockSize,
		PointsPerTestBlock: DefaultPointsPerTestBlock,
		PresencePoints:     DefaultPresencePoints,
		DailyTopBonus:      DefaultDailyTopBonus,
		ProgressBonus:      DefaultProgressBonus,
		WeeklyTopBonus:     DefaultWeeklyTopBonus,
	}
}

// Score converts one day's cumulative activity into points:
//
//	hours*PointsPerHour + (tests/TestBlockSize)*PointsPerTestBlock + presence bonus
//
// Pure and total over non-negative inputs; negative values are rejected before
// they ever reach the ledger.
func (r Rules) Score(hours, tests int, presence bool) int {
	points := hours*r.PointsPerHour + (tests/r.TestBlockSize)*r.PointsPerTestBlock
	if presence {
		points += r.PresencePoints
	}
	return points
}

// TestPoints returns the points earned by a test-count increment alone.
// Used by the /test reply to echo what the increment was worth.
func (r Rules) TestPoints(tests int) int {
	return (tests / r.TestBlockSize) * r.PointsPerTestBlock
}

// HourPoints returns the points earned by an hour increment alone.
func (r Rules) HourPoints(hours int) int {
	return hours * r.PointsPerHour
}
