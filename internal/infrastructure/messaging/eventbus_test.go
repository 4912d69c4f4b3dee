package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
}

func sampleEvent() shared.Event {
	return shared.NewActivityRecordedEvent("42", "Sara", "2025-09-01", 2, 0, false, 20, 20)
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventActivityRecorded, func(ev shared.Event) error {
		received = append(received, ev)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(sampleEvent()))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventActivityRecorded, received[0].EventType())
	assert.Equal(t, "42", received[0].AggregateID())
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls int
	require.NoError(t, bus.Subscribe(shared.EventDailyRollupCompleted, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(sampleEvent()))
	assert.Zero(t, calls, "handler for another type must not fire")
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(sampleEvent()))
	require.NoError(t, bus.Publish(shared.NewRollupCompletedEvent(
		shared.EventDailyRollupCompleted, "2025-09-01", "text", false)))

	assert.Equal(t, 2, calls)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var secondCalled bool
	require.NoError(t, bus.Subscribe(shared.EventActivityRecorded, func(shared.Event) error {
		return errors.New("first handler failed")
	}))
	require.NoError(t, bus.Subscribe(shared.EventActivityRecorded, func(shared.Event) error {
		secondCalled = true
		return nil
	}))

	require.NoError(t, bus.Publish(sampleEvent()))
	assert.True(t, secondCalled)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var (
		mu    sync.Mutex
		calls int
	)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(sampleEvent()))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}

func TestEventBus_Closed(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(sampleEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventActivityRecorded, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// A second close is harmless.
	assert.NoError(t, bus.Close())
}

func TestEventBus_NilArguments(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventActivityRecorded, nil))
	assert.Error(t, bus.Publish(nil))
}

func TestEventBusMetrics_Snapshot(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(sampleEvent()))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Zero(t, snap.HandlerFailures)
}
