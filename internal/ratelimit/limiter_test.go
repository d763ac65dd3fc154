package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, limit int) (*RedisFixedWindow, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l, err := NewRedisFixedWindow(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	return l, srv
}

func TestRedisFixedWindow_BlocksAfterLimit(t *testing.T) {
	l, _ := newRedisLimiter(t, 2)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "ip-1"))
	assert.True(t, l.Allow(ctx, "ip-1"))
	assert.False(t, l.Allow(ctx, "ip-1"))
	assert.True(t, l.Allow(ctx, "ip-2"), "keys are counted separately")
}

func TestRedisFixedWindow_FailsClosed(t *testing.T) {
	l, srv := newRedisLimiter(t, 5)
	srv.Close()
	assert.False(t, l.Allow(context.Background(), "ip-1"))
}

func TestNewRedisFixedWindow_RejectsBadArgs(t *testing.T) {
	_, err := NewRedisFixedWindow(nil, "", 1, time.Second)
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	_, err = NewRedisFixedWindow(client, "", 0, time.Second)
	assert.Error(t, err)
}

func TestLocal_BurstThenBlock(t *testing.T) {
	l := NewLocal(3, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "k"))
	}
	assert.False(t, l.Allow(ctx, "k"))
	assert.True(t, l.Allow(ctx, "other"))
}

func TestLocal_Cleanup(t *testing.T) {
	l := NewLocal(1, time.Second)
	l.Allow(context.Background(), "k")
	assert.Equal(t, 0, l.Cleanup(time.Hour))
	assert.Equal(t, 1, l.Cleanup(-time.Second))
}
