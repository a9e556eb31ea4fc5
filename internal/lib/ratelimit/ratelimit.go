// Package ratelimit provides the public and private request limiters used by
// the rate limit stage. Limiters are Redis backed when a client is available
// and in memory otherwise.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PublicSuffix keys requests without an authorization.
	PublicSuffix = "-rate-limiter-public"
	// PrivateSuffix keys requests carrying an authorization.
	PrivateSuffix = "-rate-limiter-private"
)

// Result describes the state of a key after one consumption.
type Result struct {
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	Allowed    bool
}

// Limiter consumes one point for key.
type Limiter interface {
	Consume(ctx context.Context, key string) (Result, error)
}

// Config holds the points allowed per duration for both limiters.
type Config struct {
	PublicPoints    int
	PublicDuration  time.Duration
	PrivatePoints   int
	PrivateDuration time.Duration
}

// Client groups the public and private limiters.
type Client struct {
	Public  Limiter
	Private Limiter
}

// NewClient builds Redis limiters when rdb is non-nil, memory limiters otherwise.
func NewClient(serviceName string, rdb *redis.Client, cfg Config) *Client {
	publicPrefix := serviceName + PublicSuffix
	privatePrefix := serviceName + PrivateSuffix

	if rdb != nil {
		return &Client{
			Public:  NewRedisLimiter(rdb, publicPrefix, cfg.PublicPoints, cfg.PublicDuration),
			Private: NewRedisLimiter(rdb, privatePrefix, cfg.PrivatePoints, cfg.PrivateDuration),
		}
	}

	return &Client{
		Public:  NewMemoryLimiter(publicPrefix, cfg.PublicPoints, cfg.PublicDuration),
		Private: NewMemoryLimiter(privatePrefix, cfg.PrivatePoints, cfg.PrivateDuration),
	}
}
