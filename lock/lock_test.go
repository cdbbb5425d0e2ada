package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	l := NewLocal()

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx)
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestRedis(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	first := NewRedis(client, "fueltrack:lock", time.Minute)
	second := NewRedis(client, "fueltrack:lock", time.Minute)

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Exists("fueltrack:lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx)
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	assert.False(t, s.Exists("fueltrack:lock"))

	unlock2, err := second.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	l := NewRedis(client, "k", time.Minute)
	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)

	// the lock expired and someone else took it
	require.NoError(t, s.Set("k", "someone-else"))
	unlock()

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisExpiredLockIsTakenOver(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	l := NewRedis(client, "k", time.Second)
	_, err := l.Lock(context.Background())
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}
