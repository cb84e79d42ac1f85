package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

var _ ports.Pacer = (*HostLimiter)(nil)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// HostLimiter paces requests per key (destination host) using a token bucket
// for each key. A non-positive rate disables pacing.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHostLimiter creates a limiter allowing perSecond requests per key with the
// given burst. It starts a background goroutine that evicts keys idle for
// longer than ttl. Call Stop to terminate it.
func NewHostLimiter(perSecond float64, burst int, ttl time.Duration) *HostLimiter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	l := &HostLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Stop terminates the background eviction goroutine. It is idempotent.
func (l *HostLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *HostLimiter) evictLoop() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Evict()
		case <-l.stop:
			return
		}
	}
}

// Enabled reports whether the limiter paces anything.
func (l *HostLimiter) Enabled() bool {
	return l.rate > 0
}

// Wait blocks until a request for key is within the limit or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, key string) error {
	if !l.Enabled() {
		return ctx.Err()
	}
	return l.limiterFor(key).Wait(ctx)
}

func (l *HostLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastUsed = time.Now()
	return entry.limiter
}

// Evict removes keys idle for longer than the TTL.
func (l *HostLimiter) Evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.ttl)
	for key, entry := range l.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *HostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
