package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter is a per-process token bucket per key, refilling points
// tokens over duration.
//
// A bucket idle for a whole duration is full again and indistinguishable
// from a new one, so it is dropped by the sweep that runs on Consume at most
// once per duration.
type MemoryLimiter struct {
	mu        sync.Mutex
	prefix    string
	points    int
	duration  time.Duration
	interval  time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(prefix string, points int, duration time.Duration) *MemoryLimiter {
	if points < 1 {
		points = 1
	}

	return &MemoryLimiter{
		prefix:   prefix,
		points:   points,
		duration: duration,
		interval: duration / time.Duration(points),
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Consume(_ context.Context, key string) (Result, error) {
	now := l.now()
	limiter := l.limiter(l.prefix+":"+key, now)

	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)

	result := Result{
		Limit:     l.points,
		Remaining: max(int(math.Floor(tokens)), 0),
		Allowed:   allowed,
	}

	// Exhausted keys report when the next point frees up, others when the
	// bucket is full again.
	missing := float64(l.points) - tokens
	if !allowed {
		missing = 1 - tokens
	}
	if missing > 0 {
		result.ResetAfter = time.Duration(missing * float64(l.interval))
	}

	return result, nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}

func (l *MemoryLimiter) limiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.duration {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.interval), l.points)}
		l.buckets[key] = b
	}
	b.lastAccess = now

	return b.limiter
}

// sweep drops idle buckets. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) >= l.duration {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
