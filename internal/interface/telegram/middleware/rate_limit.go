package middleware

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Protects the bot from spam using a per-user token bucket. Be gentle with a
// member who double-taps a command, firm with an actual flood.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained per-user rate.
	RequestsPerMinute int

	// BurstSize is the bucket capacity.
	BurstSize int

	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration

	// WhitelistedUsers are exempt from rate limiting (e.g., admins).
	WhitelistedUsers map[int64]bool
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		WhitelistedUsers:  make(map[int64]bool),
	}
}

// RateLimiter implements per-user rate limiting with token buckets.
type RateLimiter struct {
	config  RateLimitConfig
	buckets sync.Map // map[int64]*tokenBucket
	stopCh  chan struct{}
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	refillRate float64 // tokens per second
	maxTokens  float64
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config: config,
		stopCh: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	// Allowed indicates the request may proceed.
	Allowed bool

	// RetryAfter is how long to wait before the next token.
	RetryAfter time.Duration
}

// Check consumes one token for the user, or reports when one will be free.
func (rl *RateLimiter) Check(ctx context.Context, userID int64) RateLimitResult {
	if rl.config.WhitelistedUsers[userID] {
		return RateLimitResult{Allowed: true}
	}

	bucket := rl.getBucket(userID)
	allowed, retryAfter := bucket.consume()
	return RateLimitResult{Allowed: allowed, RetryAfter: retryAfter}
}

// Reset clears the rate limit state for a user.
func (rl *RateLimiter) Reset(userID int64) {
	rl.buckets.Delete(userID)
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) getBucket(userID int64) *tokenBucket {
	if val, ok := rl.buckets.Load(userID); ok {
		return val.(*tokenBucket)
	}

	bucket := &tokenBucket{
		tokens:     float64(rl.config.BurstSize),
		lastRefill: time.Now(),
		refillRate: float64(rl.config.RequestsPerMinute) / 60.0,
		maxTokens:  float64(rl.config.BurstSize),
	}
	actual, _ := rl.buckets.LoadOrStore(userID, bucket)
	return actual.(*tokenBucket)
}

func (b *tokenBucket) consume() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}

	deficit := 1.0 - b.tokens
	return false, time.Duration(deficit/b.refillRate*float64(time.Second))
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := time.Now()
	inactiveThreshold := 10 * time.Minute

	rl.buckets.Range(func(key, value interface{}) bool {
		bucket := value.(*tokenBucket)
		bucket.mu.Lock()
		inactive := now.Sub(bucket.lastRefill) > inactiveThreshold
		bucket.mu.Unlock()

		if inactive {
			rl.buckets.Delete(key)
		}
		return true
	})
}
