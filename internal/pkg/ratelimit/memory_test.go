package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, cfg Config, now *time.Time) *Memory {
	t.Helper()
	m, err := NewMemory(cfg)
	require.NoError(t, err)
	m.now = func() time.Time { return *now }
	return m
}

func TestMemory_AllowsUpToBurst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMemory(t, Config{Requests: 3, Window: time.Minute}, &now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := m.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request should be limited")
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMemory(t, Config{Requests: 1, Window: time.Minute}, &now)
	ctx := context.Background()

	ok, _ := m.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = m.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = m.Allow(ctx, "b")
	assert.True(t, ok)
}

func TestMemory_RefillsOverTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMemory(t, Config{Requests: 2, Window: time.Minute}, &now)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "a")
	_, _ = m.Allow(ctx, "a")
	ok, _ := m.Allow(ctx, "a")
	require.False(t, ok)

	// One token every 30s.
	now = now.Add(30 * time.Second)
	ok, _ = m.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = m.Allow(ctx, "a")
	assert.False(t, ok)
}

func TestMemory_SweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMemory(t, Config{Requests: 5, Window: time.Minute}, &now)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "a")
	_, _ = m.Allow(ctx, "b")
	assert.Equal(t, 2, m.Len())

	now = now.Add(2 * time.Minute)
	_, _ = m.Allow(ctx, "c")
	assert.Equal(t, 1, m.Len())
}

func TestNewMemory_InvalidConfig(t *testing.T) {
	_, err := NewMemory(Config{Requests: 0, Window: time.Minute})
	assert.Error(t, err)

	_, err = NewMemory(Config{Requests: 10, Window: 0})
	assert.Error(t, err)
}
