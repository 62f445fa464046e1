package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "recovery:rl"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
}

// Limiter is a fixed-window counter backed by Redis.
type Limiter struct {
	store  cmdable
	window time.Duration
	limit  int64
}

// New parses url, verifies connectivity, and returns a limiter allowing
// limit hits per key within each window.
func New(ctx context.Context, url string, window time.Duration, limit int) (*Limiter, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, window, limit), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, window time.Duration, limit int) *Limiter {
	return &Limiter{store: client, window: window, limit: int64(limit)}
}

// IncrWithTTL increments key and sets ttl on the first increment.
func (l *Limiter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if _, err := l.store.Expire(ctx, key, ttl).Result(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Allow records a hit for scope/subject and reports whether it is within the
// limit, along with the current count.
func (l *Limiter) Allow(ctx context.Context, scope, subject string) (bool, int64, error) {
	if l == nil || l.window <= 0 || l.limit <= 0 {
		return true, 0, nil
	}
	count, err := l.IncrWithTTL(ctx, Key(scope, subject), l.window)
	if err != nil {
		return false, 0, err
	}
	return count <= l.limit, count, nil
}

// Window is the length of one counting window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Key returns the namespaced counter key for scope and subject.
func Key(scope, subject string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, scope, subject)
}
