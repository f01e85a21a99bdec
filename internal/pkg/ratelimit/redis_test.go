//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/bissquit/notification-registry/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_FixedWindow(t *testing.T) {
	ctx := context.Background()

	container, err := testutil.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	client := redis.NewClient(&redis.Options{Addr: container.Addr})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedis(client, Config{Requests: 2, Window: time.Second})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok, "third request inside the window is rejected")

	ok, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, ok, "other clients have their own counter")

	ttl, err := client.TTL(ctx, redisKeyPrefix+"client-a").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0, "window key carries a ttl")

	require.Eventually(t, func() bool {
		ok, err := limiter.Allow(ctx, "client-a")
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond, "counter resets after the window")
}
