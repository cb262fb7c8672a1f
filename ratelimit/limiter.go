// Package ratelimit throttles outbound requests to the document service.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements token bucket rate limiting per key (one key per remote
// host). A Limiter built with a non-positive rate never blocks.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// New creates a limiter allowing rps requests per second per key with the
// given burst. A burst below 1 defaults to ceil(rps).
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = int(rps)
		if float64(burst) < rps {
			burst++
		}
		if burst < 1 {
			burst = 1
		}
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Unlimited reports whether the limiter never throttles.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.rps <= 0
}

// Allow reports whether a request for key may proceed now, consuming a token.
func (l *Limiter) Allow(key string) bool {
	if l.Unlimited() {
		return true
	}
	return l.get(key).Allow()
}

// Wait blocks until a request for key may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l.Unlimited() {
		return nil
	}
	return l.get(key).Wait(ctx)
}

// Reset clears the bucket for key.
func (l *Limiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[key] = lim
	}
	return lim
}
