package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultFailureWindow = 10 * time.Minute
	defaultFailureBudget = 10
)

// AttemptLimiter throttles repeated failed redemptions per client key.
// Key format: hslim:<key>
type AttemptLimiter struct {
	client *redis.Client
	window time.Duration
	budget int
}

// NewAttemptLimiter creates an AttemptLimiter wrapping the given redis
// client. Non-positive window/budget fall back to the defaults.
func NewAttemptLimiter(client *redis.Client, window time.Duration, budget int) *AttemptLimiter {
	if window <= 0 {
		window = defaultFailureWindow
	}
	if budget <= 0 {
		budget = defaultFailureBudget
	}
	return &AttemptLimiter{client: client, window: window, budget: budget}
}

// TooManyFailures reports whether the key has spent its failure budget
// inside the current window.
func (l *AttemptLimiter) TooManyFailures(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("limiter check: %w", err)
	}
	return n >= l.budget, nil
}

// RecordFailure counts one failed redemption; the first failure of a window
// arms its expiry.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, l.key(key))
	pipe.ExpireNX(ctx, l.key(key), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("limiter record: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) key(k string) string {
	return fmt.Sprintf("hslim:%s", k)
}
