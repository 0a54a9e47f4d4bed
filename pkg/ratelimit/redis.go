package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisLimiter is a Redis-backed sliding-window limiter. Hits are members of
// a sorted set keyed by scope and identifier, scored by their timestamp. All
// limits for the same (scope, identifier) pair share one set, so the limiter
// works across multiple instances.
type RedisLimiter struct {
	client *redis.Client
	scope  Scope
	config Config
	prefix string
}

// NewRedisLimiter creates a limiter for one scope.
func NewRedisLimiter(client *redis.Client, scope Scope, config Config) (*RedisLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.Capacity <= 0 || config.Window <= 0 {
		return nil, fmt.Errorf("scope %s: capacity and window must be positive", scope)
	}
	return &RedisLimiter{
		client: client,
		scope:  scope,
		config: config,
		prefix: "ratelimit",
	}, nil
}

// Scope returns the scope this limiter was built for.
func (rl *RedisLimiter) Scope() Scope {
	return rl.scope
}

// Limit records a hit for the identifier and returns the verdict. The prune,
// record, and count steps run in a single transactional pipeline so the
// check-then-act sequence is atomic per key. The hit is recorded whether or
// not the call is allowed.
func (rl *RedisLimiter) Limit(ctx context.Context, identifier string) (Result, error) {
	now := time.Now()
	key := fmt.Sprintf("%s:%s:%s", rl.prefix, rl.scope, identifier)
	windowStart := now.Add(-rl.config.Window)

	pipe := rl.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	// Expire the whole set once the window has fully passed with no traffic.
	pipe.Expire(ctx, key, rl.config.Window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit store error: %w", err)
	}

	count := int(card.Val())
	remaining := rl.config.Capacity - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(rl.config.Window)
	if members := oldest.Val(); len(members) > 0 {
		oldestHit := time.UnixMilli(int64(members[0].Score))
		resetAt = oldestHit.Add(rl.config.Window)
	}

	return Result{
		Allowed:   count <= rl.config.Capacity,
		Limit:     rl.config.Capacity,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
