package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory keeps one token bucket per client in process memory.
// A bucket refills completely within one window, so buckets idle for longer
// than that are dropped.
type Memory struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewMemory creates an in-process limiter.
func NewMemory(cfg Config) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Memory{
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		window:  cfg.Window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}, nil
}

// Allow consumes one token from the client's bucket.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1), nil
}

func (m *Memory) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= m.window {
			delete(m.buckets, key)
		}
	}
	m.lastSweep = now
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
