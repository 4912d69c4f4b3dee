package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
)

// keyMonthlyTop holds the cached monthly ranking as a JSON array of rows.
// Full rows are stored and truncated at read time, so one invalidation point
// serves every requested limit.
const keyMonthlyTop = "leaderboard:monthly:top"

// TTLLeaderboard is the default freshness window of the cached ranking.
// Every ledger write invalidates eagerly; the TTL is only a backstop.
const TTLLeaderboard = 5 * time.Minute

// LeaderboardCache implements leaderboard.Cache on Redis.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// GetTop returns the cached monthly ranking, at most limit rows.
func (l *LeaderboardCache) GetTop(ctx context.Context, limit int) ([]leaderboard.Row, error) {
	data, err := l.cache.Client().Get(ctx, keyMonthlyTop).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: get: %w", err)
	}

	var rows []leaderboard.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		// A corrupt value must behave like a miss, not break the query.
		_ = l.cache.Client().Del(ctx, keyMonthlyTop).Err()
		return nil, ErrCacheMiss
	}

	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// SetTop replaces the cached monthly ranking.
func (l *LeaderboardCache) SetTop(ctx context.Context, rows []leaderboard.Row, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLeaderboard
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("leaderboard_cache: marshal: %w", err)
	}

	if err := l.cache.Client().Set(ctx, keyMonthlyTop, data, ttl).Err(); err != nil {
		return fmt.Errorf("leaderboard_cache: set: %w", err)
	}
	return nil
}

// Invalidate drops the cached ranking after any ledger write.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := l.cache.Client().Del(ctx, keyMonthlyTop).Err(); err != nil {
		return fmt.Errorf("leaderboard_cache: invalidate: %w", err)
	}
	return nil
}
