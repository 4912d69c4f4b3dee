// Package shared contains common domain types, errors, and events.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that happened
// in the ledger; rollup-completed events carry the announcement text that the
// event handler delivers to the group chat, outside the ledger lock.
const (
	// Ledger events
	EventActivityRecorded EventType = "ledger.activity_recorded"
	EventUserRegistered   EventType = "ledger.user_registered"

	// Rollup events
	EventDailyRollupCompleted   EventType = "rollup.daily_completed"
	EventWeeklyRollupCompleted  EventType = "rollup.weekly_completed"
	EventMonthlyRollupCompleted EventType = "rollup.monthly_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus is a publisher that also manages subscriptions.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for every event.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityRecordedEvent is emitted after a study report is persisted.
type ActivityRecordedEvent struct {
	BaseEvent
	DisplayName string `json:"display_name"`
	Date        string `json:"date"`
	HoursAdded  int    `json:"hours_added"`
	TestsAdded  int    `json:"tests_added"`
	Presence    bool   `json:"presence"`
	DayPoints   int    `json:"day_points"`
	PointsDelta int    `json:"points_delta"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"display_name": e.DisplayName,
		"date":         e.Date,
		"hours_added":  e.HoursAdded,
		"tests_added":  e.TestsAdded,
		"presence":     e.Presence,
		"day_points":   e.DayPoints,
		"points_delta": e.PointsDelta,
	}
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent.
func NewActivityRecordedEvent(userID, displayName, date string, hours, tests int, presence bool, dayPoints, delta int) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent:   NewBaseEvent(EventActivityRecorded, userID),
		DisplayName: displayName,
		Date:        date,
		HoursAdded:  hours,
		TestsAdded:  tests,
		Presence:    presence,
		DayPoints:   dayPoints,
		PointsDelta: delta,
	}
}

// UserRegisteredEvent is emitted the first time a user records any activity.
type UserRegisteredEvent struct {
	BaseEvent
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"display_name": e.DisplayName}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, displayName string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventUserRegistered, userID),
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rollup Events
// ═══════════════════════════════════════════════════════════════════════════

// RollupCompletedEvent is emitted when any rollup finishes, carrying the
// ready-to-send group announcement. Repeat indicates the rollup was already
// performed for this period and no state was mutated.
type RollupCompletedEvent struct {
	BaseEvent
	Period       string `json:"period"` // date key, week key, or month key
	Announcement string `json:"announcement"`
	Repeat       bool   `json:"repeat"`
}

// Payload implements Event interface.
func (e RollupCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"period":       e.Period,
		"announcement": e.Announcement,
		"repeat":       e.Repeat,
	}
}

// NewRollupCompletedEvent creates a rollup completion event of the given type.
func NewRollupCompletedEvent(eventType EventType, period, announcement string, repeat bool) RollupCompletedEvent {
	return RollupCompletedEvent{
		BaseEvent:    NewBaseEvent(eventType, period),
		Period:       period,
		Announcement: announcement,
		Repeat:       repeat,
	}
}
