package relay

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestThrottle_Check(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	throttle := NewThrottle(client, 3, time.Hour, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res := throttle.Check(ctx, "203.0.113.7")
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, i, res.Count)
	}
	res := throttle.Check(ctx, "203.0.113.7")
	assert.False(t, res.Allowed)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, 3, res.Max)
	assert.True(t, res.ResetAt.After(time.Now()))

	other := throttle.Check(ctx, "198.51.100.1")
	assert.True(t, other.Allowed)

	ttl, err := client.TTL(ctx, throttleKey("203.0.113.7")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestThrottle_Reset(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	throttle := NewThrottle(client, 1, time.Hour, nil)
	ctx := context.Background()

	throttle.Check(ctx, "client")
	assert.False(t, throttle.Check(ctx, "client").Allowed)

	require.NoError(t, throttle.Reset(ctx, "client"))
	assert.True(t, throttle.Check(ctx, "client").Allowed)
}

func TestThrottle_RestoresMissingExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	throttle := NewThrottle(client, 3, time.Hour, nil)
	ctx := context.Background()
	key := throttleKey("203.0.113.7")

	// counter over the limit whose first EXPIRE never landed
	require.NoError(t, client.Set(ctx, key, 5, 0).Err())

	res := throttle.Check(ctx, "203.0.113.7")
	assert.False(t, res.Allowed)
	assert.Greater(t, mr.TTL(key), 59*time.Minute)

	mr.FastForward(time.Hour + time.Second)
	assert.True(t, throttle.Check(ctx, "203.0.113.7").Allowed)
}

func TestThrottle_FailsOpenWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	throttle := NewThrottle(client, 1, time.Hour, nil)
	assert.True(t, throttle.Check(context.Background(), "client").Allowed)
}

func TestThrottle_DisabledVariants(t *testing.T) {
	var nilThrottle *Throttle
	assert.True(t, nilThrottle.Check(context.Background(), "x").Allowed)
	assert.NoError(t, nilThrottle.Reset(context.Background(), "x"))

	noClient := NewThrottle(nil, 5, 0, nil)
	assert.True(t, noClient.Check(context.Background(), "x").Allowed)

	client, cleanup := setupTestRedis(t)
	defer cleanup()
	unlimited := NewThrottle(client, 0, time.Hour, nil)
	for i := 0; i < 5; i++ {
		assert.True(t, unlimited.Check(context.Background(), "x").Allowed)
	}
}
