package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in command handlers so one bad update cannot take down the
// polling loop. Users never see a stack trace; the log gets everything.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// MaxPanicsPerMinute caps panic processing to avoid cascading noise.
	MaxPanicsPerMinute int
}

// DefaultRecoveryConfig returns sensible defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		MaxPanicsPerMinute: 100,
	}
}

// PanicInfo describes a recovered panic.
type PanicInfo struct {
	// Error is the panic value converted to error.
	Error error

	// StackTrace is the captured stack.
	StackTrace string

	// UserID is the Telegram user whose update panicked.
	UserID int64

	// Command is the command being processed.
	Command string

	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

// RecoveryMiddleware recovers from handler panics.
type RecoveryMiddleware struct {
	config RecoveryConfig
	logger *slog.Logger

	mu     sync.Mutex
	count  int
	window time.Time
}

// NewRecoveryMiddleware creates a new RecoveryMiddleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecoveryMiddleware{
		config: config,
		logger: config.Logger,
		window: time.Now(),
	}
}

// Recover runs the handler, converting a panic into a *PanicInfo. The
// handler's own error passes through untouched.
func (m *RecoveryMiddleware) Recover(
	ctx context.Context,
	userID int64,
	command string,
	handler func() error,
) (info *PanicInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = m.handlePanic(r, userID, command)
		}
	}()

	err = handler()
	return nil, err
}

func (m *RecoveryMiddleware) handlePanic(panicValue interface{}, userID int64, command string) *PanicInfo {
	info := &PanicInfo{
		Error:      toError(panicValue),
		UserID:     userID,
		Command:    command,
		Timestamp:  time.Now(),
		StackTrace: string(debug.Stack()),
	}

	if m.allow() {
		m.logger.Error("panic recovered in handler",
			"command", command,
			"user_id", userID,
			"error", info.Error,
			"stack", info.StackTrace,
		)
	}

	return info
}

// allow rate-limits panic logging.
func (m *RecoveryMiddleware) allow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.window) > time.Minute {
		m.count = 0
		m.window = now
	}
	if m.count >= m.config.MaxPanicsPerMinute {
		return false
	}
	m.count++
	return true
}

func toError(panicValue interface{}) error {
	switch v := panicValue.(type) {
	case error:
		return v
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
