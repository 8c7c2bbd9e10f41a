package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_MemoryFixedWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(NewMemoryStore(clock), 20, 10*time.Minute, "auth:")
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 20-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clock.Now().Add(10*time.Minute), res.ResetAt)

	other, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clock.Advance(10 * time.Minute)
	res, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 19, res.Remaining)
}

func TestMemoryStore_SweepsExpiredWindows(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(clock)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "a", time.Minute)
	_, _, _ = s.Hit(ctx, "b", time.Minute)
	assert.Equal(t, 2, s.len())

	clock.Advance(2 * time.Minute)
	_, _, _ = s.Hit(ctx, "c", time.Minute)
	assert.Equal(t, 1, s.len())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := New(NewRedisStore(client), 2, time.Minute, "auth:")
	ctx := context.Background()

	first, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.WithinDuration(t, time.Now().Add(time.Minute), first.ResetAt, 5*time.Second)
	assert.Equal(t, time.Minute, mr.TTL("auth:1.2.3.4"))

	_, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	third, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, third.Allowed)

	mr.FastForward(time.Minute)
	again, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
