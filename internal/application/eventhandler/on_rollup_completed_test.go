package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/messaging"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/retry"
)

// fakeAnnouncer records delivered texts and can fail a number of times.
type fakeAnnouncer struct {
	delivered []string
	failures  int
}

func (a *fakeAnnouncer) AnnounceToGroup(_ context.Context, text string) error {
	if a.failures > 0 {
		a.failures--
		return errors.New("telegram unreachable")
	}
	a.delivered = append(a.delivered, text)
	return nil
}

func fastRetryConfig() RollupCompletedConfig {
	return RollupCompletedConfig{
		AnnounceRepeats: true,
		DeliveryTimeout: time.Second,
		Retry:           retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}
}

func TestOnRollupCompleted_Delivers(t *testing.T) {
	announcer := &fakeAnnouncer{}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	ev := shared.NewRollupCompletedEvent(shared.EventDailyRollupCompleted,
		"2025-09-01", "📊 نتیجه امروز", false)

	require.NoError(t, h.Handle(ev))
	require.Len(t, announcer.delivered, 1)
	assert.Equal(t, "📊 نتیجه امروز", announcer.delivered[0])
}

func TestOnRollupCompleted_SkipsEmptyAnnouncement(t *testing.T) {
	announcer := &fakeAnnouncer{}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	ev := shared.NewRollupCompletedEvent(shared.EventWeeklyRollupCompleted, "2025-W36", "", false)

	require.NoError(t, h.Handle(ev))
	assert.Empty(t, announcer.delivered)
}

func TestOnRollupCompleted_RepeatSuppressedWhenConfigured(t *testing.T) {
	announcer := &fakeAnnouncer{}
	cfg := fastRetryConfig()
	cfg.AnnounceRepeats = false
	h := NewOnRollupCompletedHandler(announcer, nil, cfg)

	ev := shared.NewRollupCompletedEvent(shared.EventDailyRollupCompleted,
		"2025-09-01", "ranking text", true)

	require.NoError(t, h.Handle(ev))
	assert.Empty(t, announcer.delivered)
}

func TestOnRollupCompleted_RetriesTransientFailures(t *testing.T) {
	announcer := &fakeAnnouncer{failures: 2}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	ev := shared.NewRollupCompletedEvent(shared.EventDailyRollupCompleted,
		"2025-09-01", "text", false)

	require.NoError(t, h.Handle(ev))
	assert.Len(t, announcer.delivered, 1)
}

func TestOnRollupCompleted_ReportsExhaustedRetries(t *testing.T) {
	announcer := &fakeAnnouncer{failures: 10}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	ev := shared.NewRollupCompletedEvent(shared.EventDailyRollupCompleted,
		"2025-09-01", "text", false)

	assert.Error(t, h.Handle(ev))
	assert.Empty(t, announcer.delivered)
}

func TestOnRollupCompleted_IgnoresForeignEvents(t *testing.T) {
	announcer := &fakeAnnouncer{}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	require.NoError(t, h.Handle(shared.NewUserRegisteredEvent("42", "Sara")))
	assert.Empty(t, announcer.delivered)
}

func TestOnRollupCompleted_SubscribeWiresAllRollupTypes(t *testing.T) {
	announcer := &fakeAnnouncer{}
	h := NewOnRollupCompletedHandler(announcer, nil, fastRetryConfig())

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	require.NoError(t, h.Subscribe(bus))

	for _, et := range []shared.EventType{
		shared.EventDailyRollupCompleted,
		shared.EventWeeklyRollupCompleted,
		shared.EventMonthlyRollupCompleted,
	} {
		require.NoError(t, bus.Publish(shared.NewRollupCompletedEvent(et, "p", "text", false)))
	}

	assert.Len(t, announcer.delivered, 3)
}
