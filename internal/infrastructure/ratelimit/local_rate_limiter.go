package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/crn/internal/domain/service"
)

type window struct {
	count   int
	resetAt time.Time
}

// LocalRateLimiter is an in-process fixed-window limiter. Counters expire with
// their window.
type LocalRateLimiter struct {
	mu       sync.Mutex
	counters *gocache.Cache
	now      func() time.Time
}

var _ service.RateLimiter = (*LocalRateLimiter)(nil)

// NewLocalRateLimiter creates an empty limiter.
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		counters: gocache.New(time.Minute, 5*time.Minute),
		now:      time.Now,
	}
}

// Allow consumes one request for key within the current window.
func (l *LocalRateLimiter) Allow(_ context.Context, scope, key string, limit int, win time.Duration) (bool, int, time.Time, error) {
	now := l.now()
	if limit <= 0 {
		return false, 0, now.Add(win), nil
	}
	k := fmt.Sprintf("%s:%s", scope, key)

	l.mu.Lock()
	defer l.mu.Unlock()

	w := &window{resetAt: now.Add(win)}
	if v, ok := l.counters.Get(k); ok {
		if existing := v.(*window); now.Before(existing.resetAt) {
			w = existing
		}
	}
	w.count++
	l.counters.Set(k, w, w.resetAt.Sub(now))

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= limit, remaining, w.resetAt, nil
}

// Reset clears the counter for key.
func (l *LocalRateLimiter) Reset(scope, key string) {
	l.counters.Delete(fmt.Sprintf("%s:%s", scope, key))
}
