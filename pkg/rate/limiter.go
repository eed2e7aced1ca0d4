package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key, such as a client IP.
type Limiter interface {
	Allow(key string) (bool, error)
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter is an in memory Limiter with one token bucket per key.
type LocalRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	sync.Mutex
	limiters map[string]*keyedLimiter
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second for each key. The burst size equals the limit, and is at least 1.
func NewLocalRateLimiter(limit rate.Limit) *LocalRateLimiter {
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}

	return &LocalRateLimiter{
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

// Allow implements limiter.Allow.
func (l *LocalRateLimiter) Allow(key string) (bool, error) {
	now := l.now()

	l.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{
			limiter: rate.NewLimiter(l.limit, l.burst),
		}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

// Prune drops the state of keys that haven't been seen within idle, and
// returns the number of keys removed.
func (l *LocalRateLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.Lock()
	defer l.Unlock()

	var removed int
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of keys currently tracked.
func (l *LocalRateLimiter) Size() int {
	l.Lock()
	defer l.Unlock()

	return len(l.limiters)
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}
