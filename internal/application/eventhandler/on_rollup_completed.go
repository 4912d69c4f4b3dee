// Package eventhandler contains subscribers for domain events.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/shared"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ROLLUP COMPLETED HANDLER
// Delivers the prepared announcement text to the group chat. The rollup
// command handlers compute outcomes and render announcements under the ledger
// lock; delivery happens here, on the bus, so a slow or failing Telegram call
// can never stall or poison a rollup.
// ═══════════════════════════════════════════════════════════════════════════

// GroupAnnouncer delivers a message to the community group chat.
// Implemented by the telegram bot interface layer.
type GroupAnnouncer interface {
	AnnounceToGroup(ctx context.Context, text string) error
}

// RollupCompletedConfig contains configuration for the handler.
type RollupCompletedConfig struct {
	// AnnounceRepeats controls whether re-triggered rollups are re-announced.
	// The daily rollup re-announces its ranking on a manual repeat trigger;
	// weekly and monthly repeats produce no announcement text at all.
	AnnounceRepeats bool

	// DeliveryTimeout bounds a single announcement delivery.
	DeliveryTimeout time.Duration

	// Retry governs redelivery attempts on transient Telegram failures.
	Retry retry.Config
}

// DefaultRollupCompletedConfig returns sensible defaults.
func DefaultRollupCompletedConfig() RollupCompletedConfig {
	return RollupCompletedConfig{
		AnnounceRepeats: true,
		DeliveryTimeout: 30 * time.Second,
		Retry: retry.Config{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Multiplier:  2.0,
			Jitter:      0.2,
		},
	}
}

// OnRollupCompletedHandler delivers rollup announcements to the group.
type OnRollupCompletedHandler struct {
	announcer GroupAnnouncer
	logger    *slog.Logger
	config    RollupCompletedConfig
}

// NewOnRollupCompletedHandler creates a new handler.
func NewOnRollupCompletedHandler(announcer GroupAnnouncer, logger *slog.Logger, config RollupCompletedConfig) *OnRollupCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRollupCompletedHandler{
		announcer: announcer,
		logger:    logger.With("handler", "on_rollup_completed"),
		config:    config,
	}
}

// Subscribe registers this handler for all three rollup event types.
func (h *OnRollupCompletedHandler) Subscribe(bus shared.EventBus) error {
	for _, t := range []shared.EventType{
		shared.EventDailyRollupCompleted,
		shared.EventWeeklyRollupCompleted,
		shared.EventMonthlyRollupCompleted,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle implements shared.EventHandler.
func (h *OnRollupCompletedHandler) Handle(event shared.Event) error {
	rollup, ok := event.(shared.RollupCompletedEvent)
	if !ok {
		h.logger.Warn("received non-RollupCompletedEvent", "event_type", event.EventType())
		return nil
	}

	if rollup.Announcement == "" {
		// Empty and repeat weekly/monthly runs carry no text.
		h.logger.Debug("rollup produced no announcement",
			"event_type", rollup.EventType(),
			"period", rollup.Period,
		)
		return nil
	}

	if rollup.Repeat && !h.config.AnnounceRepeats {
		h.logger.Info("skipping repeat rollup announcement",
			"event_type", rollup.EventType(),
			"period", rollup.Period,
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.DeliveryTimeout)
	defer cancel()

	err := retry.Do(ctx, h.config.Retry, func(ctx context.Context) error {
		return h.announcer.AnnounceToGroup(ctx, rollup.Announcement)
	})
	if err != nil {
		h.logger.Error("failed to deliver rollup announcement",
			"event_type", rollup.EventType(),
			"period", rollup.Period,
			"error", err,
		)
		return fmt.Errorf("deliver announcement for %s: %w", rollup.Period, err)
	}

	h.logger.Info("rollup announcement delivered",
		"event_type", rollup.EventType(),
		"period", rollup.Period,
		"repeat", rollup.Repeat,
	)
	return nil
}
