// Package ratelimit provides per-client request limiters.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Limiter decides whether a client identified by key may issue another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config describes the allowance: Requests per Window for each client.
type Config struct {
	Requests int
	Window   time.Duration
}

func (c Config) validate() error {
	if c.Requests <= 0 {
		return errors.New("ratelimit: requests must be positive")
	}
	if c.Window <= 0 {
		return errors.New("ratelimit: window must be positive")
	}
	return nil
}
