package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed window limiter: at most points consumptions per key
// within duration of the first one.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	points   int
	duration time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, points int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		points:   points,
		duration: duration,
	}
}

func (l *RedisLimiter) Consume(ctx context.Context, key string) (Result, error) {
	redisKey := l.prefix + ":" + key

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, l.duration)
		count = pipe.Incr(ctx, redisKey)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to consume %s: %w", redisKey, err)
	}

	resetAfter := ttl.Val()
	if resetAfter < 0 {
		resetAfter = l.duration
	}

	consumed := int(count.Val())
	return Result{
		Limit:      l.points,
		Remaining:  max(l.points-consumed, 0),
		ResetAfter: resetAfter,
		Allowed:    consumed <= l.points,
	}, nil
}
