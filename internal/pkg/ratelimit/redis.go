package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// Redis is a fixed-window limiter shared by every replica using the same Redis.
type Redis struct {
	client   redis.Cmdable
	requests int64
	window   time.Duration
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client redis.Cmdable, cfg Config) (*Redis, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Redis{
		client:   client,
		requests: int64(cfg.Requests),
		window:   cfg.Window,
	}, nil
}

// Allow increments the client's counter for the current window. The window
// starts with the first request and its key expires when the window ends.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := redisKeyPrefix + key

	pipe := r.client.TxPipeline()
	count := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}

	return count.Val() <= r.requests, nil
}
