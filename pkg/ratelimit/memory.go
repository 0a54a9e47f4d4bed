package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window limiter with the same
// semantics as RedisLimiter. It serves single-node deployments and tests;
// limits are lost on restart and not shared between instances.
type MemoryLimiter struct {
	scope  Scope
	config Config

	mu   sync.Mutex
	hits map[string][]time.Time

	// nowFunc is overridable in tests.
	nowFunc func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter for one scope.
func NewMemoryLimiter(scope Scope, config Config) (*MemoryLimiter, error) {
	if config.Capacity <= 0 || config.Window <= 0 {
		return nil, fmt.Errorf("scope %s: capacity and window must be positive", scope)
	}
	return &MemoryLimiter{
		scope:   scope,
		config:  config,
		hits:    make(map[string][]time.Time),
		nowFunc: time.Now,
	}, nil
}

// Scope returns the scope this limiter was built for.
func (ml *MemoryLimiter) Scope() Scope {
	return ml.scope
}

// Limit records a hit for the identifier and returns the verdict. The mutex
// makes the prune-record-count sequence atomic per limiter.
func (ml *MemoryLimiter) Limit(_ context.Context, identifier string) (Result, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.nowFunc()
	windowStart := now.Add(-ml.config.Window)

	kept := ml.hits[identifier][:0]
	for _, hit := range ml.hits[identifier] {
		if hit.After(windowStart) {
			kept = append(kept, hit)
		}
	}
	kept = append(kept, now)
	ml.hits[identifier] = kept

	count := len(kept)
	remaining := ml.config.Capacity - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= ml.config.Capacity,
		Limit:     ml.config.Capacity,
		Remaining: remaining,
		ResetAt:   kept[0].Add(ml.config.Window),
	}, nil
}

// Cleanup drops identifiers whose hits have all aged out of the window.
func (ml *MemoryLimiter) Cleanup() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	windowStart := ml.nowFunc().Add(-ml.config.Window)
	for identifier, hits := range ml.hits {
		stale := true
		for _, hit := range hits {
			if hit.After(windowStart) {
				stale = false
				break
			}
		}
		if stale {
			delete(ml.hits, identifier)
		}
	}
}

// StartCleanup runs Cleanup once per window until the context is cancelled.
func (ml *MemoryLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(ml.config.Window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ml.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
