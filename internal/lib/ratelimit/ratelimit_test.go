package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := NewRedisLimiter(rdb, "svc"+PublicSuffix, 2, time.Minute)
	ctx := context.Background()

	first, err := limiter.Consume(ctx, "version-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 2, first.Limit)
	assert.Equal(t, 1, first.Remaining)
	assert.Greater(t, first.ResetAfter, time.Duration(0))
	assert.LessOrEqual(t, first.ResetAfter, time.Minute)

	second, err := limiter.Consume(ctx, "version-1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Consume(ctx, "version-1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)

	other, err := limiter.Consume(ctx, "version-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	assert.True(t, mr.Exists("svc-rate-limiter-public:version-1"))

	mr.FastForward(time.Minute + time.Second)

	again, err := limiter.Consume(ctx, "version-1")
	require.NoError(t, err)
	assert.True(t, again.Allowed)
	assert.Equal(t, 1, again.Remaining)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	_, err := NewRedisLimiter(rdb, "svc", 1, time.Second).Consume(context.Background(), "k")
	assert.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter("svc"+PrivateSuffix, 2, 2*time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := limiter.Consume(ctx, "token")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, time.Second, first.ResetAfter)

	second, _ := limiter.Consume(ctx, "token")
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, _ := limiter.Consume(ctx, "token")
	assert.False(t, third.Allowed)
	assert.Equal(t, time.Second, third.ResetAfter)

	now = now.Add(time.Second)
	fourth, _ := limiter.Consume(ctx, "token")
	assert.True(t, fourth.Allowed)
}

func TestNewClient(t *testing.T) {
	cfg := Config{PublicPoints: 1, PublicDuration: time.Second, PrivatePoints: 5, PrivateDuration: time.Second}

	memory := NewClient("svc", nil, cfg)
	assert.IsType(t, &MemoryLimiter{}, memory.Public)
	assert.IsType(t, &MemoryLimiter{}, memory.Private)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backed := NewClient("svc", rdb, cfg)
	assert.IsType(t, &RedisLimiter{}, backed.Public)
	assert.IsType(t, &RedisLimiter{}, backed.Private)
}

func TestMemoryLimiter_EvictsIdleKeys(t *testing.T) {
	limiter := NewMemoryLimiter("svc"+PublicSuffix, 2, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := limiter.Consume(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, limiter.Len())

	now = start.Add(40 * time.Second)
	_, _ = limiter.Consume(ctx, "hot")
	_, _ = limiter.Consume(ctx, "hot")
	assert.Equal(t, 1001, limiter.Len())

	now = start.Add(time.Minute)
	res, err := limiter.Consume(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Len())
	assert.False(t, res.Allowed, "active keys keep their bucket")

	now = start.Add(3 * time.Minute)
	_, _ = limiter.Consume(ctx, "cold")
	assert.Equal(t, 1, limiter.Len())
}
