package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/external/telegram"
)

// fakeLookup is a programmable ChatMemberLookup.
type fakeLookup struct {
	status string
	err    error
	calls  int
}

func (f *fakeLookup) GetChatMember(_ context.Context, _, userID int64) (*telegram.ChatMember, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &telegram.ChatMember{
		User:   &telegram.User{ID: userID},
		Status: f.status,
	}, nil
}

func TestAdminGate_Admin(t *testing.T) {
	lookup := &fakeLookup{status: "administrator"}
	gate := NewAdminGate(lookup, DefaultAdminGateConfig(-100))

	res := gate.Check(context.Background(), 42)
	assert.Equal(t, shared.Authorized, res.Status)
	assert.True(t, res.Allowed())
}

func TestAdminGate_Member(t *testing.T) {
	lookup := &fakeLookup{status: "member"}
	gate := NewAdminGate(lookup, DefaultAdminGateConfig(-100))

	res := gate.Check(context.Background(), 42)
	assert.Equal(t, shared.Unauthorized, res.Status)
	assert.False(t, res.Allowed())
}

func TestAdminGate_CachesVerdicts(t *testing.T) {
	lookup := &fakeLookup{status: "creator"}
	gate := NewAdminGate(lookup, DefaultAdminGateConfig(-100))
	ctx := context.Background()

	gate.Check(ctx, 42)
	gate.Check(ctx, 42)
	assert.Equal(t, 1, lookup.calls, "second check served from cache")

	gate.Invalidate(42)
	gate.Check(ctx, 42)
	assert.Equal(t, 2, lookup.calls)
}

func TestAdminGate_LookupFailure(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("telegram unreachable")}
	gate := NewAdminGate(lookup, DefaultAdminGateConfig(-100))
	ctx := context.Background()

	// A failed lookup is CheckFailed, never "not an admin".
	res := gate.Check(ctx, 42)
	assert.Equal(t, shared.CheckFailed, res.Status)
	assert.Error(t, res.Err)

	// Failures are not cached; a recovered API gets asked again.
	lookup.err = nil
	lookup.status = "administrator"
	res = gate.Check(ctx, 42)
	assert.Equal(t, shared.Authorized, res.Status)
}

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Check(ctx, 42).Allowed, "burst request %d", i)
	}

	res := rl.Check(ctx, 42)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, 1).Allowed)
	assert.False(t, rl.Check(ctx, 1).Allowed)

	// Another user's bucket is untouched.
	assert.True(t, rl.Check(ctx, 2).Allowed)
}

func TestRateLimiter_Whitelist(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
		WhitelistedUsers:  map[int64]bool{7: true},
	})
	defer rl.Stop()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Check(ctx, 7).Allowed)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	ctx := context.Background()

	require.True(t, rl.Check(ctx, 42).Allowed)
	require.False(t, rl.Check(ctx, 42).Allowed)

	rl.Reset(42)
	assert.True(t, rl.Check(ctx, 42).Allowed)
}

func TestRecovery_PassesThroughResults(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())
	ctx := context.Background()

	info, err := m.Recover(ctx, 42, "study", func() error { return nil })
	assert.Nil(t, info)
	assert.NoError(t, err)

	handlerErr := errors.New("db down")
	info, err = m.Recover(ctx, 42, "study", func() error { return handlerErr })
	assert.Nil(t, info)
	assert.Equal(t, handlerErr, err)
}

func TestRecovery_CatchesPanics(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())

	info, err := m.Recover(context.Background(), 42, "study", func() error {
		panic("boom")
	})
	assert.NoError(t, err)
	require.NotNil(t, info)
	assert.EqualError(t, info.Error, "boom")
	assert.Equal(t, int64(42), info.UserID)
	assert.Equal(t, "study", info.Command)
	assert.NotEmpty(t, info.StackTrace)
}

func TestRecovery_PanicWithError(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())
	cause := errors.New("nil map write")

	info, _ := m.Recover(context.Background(), 42, "study", func() error {
		panic(cause)
	})
	require.NotNil(t, info)
	assert.Equal(t, cause, info.Error)
}
