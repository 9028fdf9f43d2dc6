package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed hands out one token-bucket limiter per key (client IP, chat id).
type Keyed struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*entry
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New allows perSecond events per key with the given burst. perSecond <= 0
// disables limiting.
func New(perSecond float64, burst int) *Keyed {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Keyed{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*entry),
		now:      time.Now,
	}
}

// Allow consumes one token for key.
func (k *Keyed) Allow(key string) bool {
	if k.limit == rate.Inf {
		return true
	}

	k.mu.Lock()
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = k.now()
	k.mu.Unlock()

	return e.limiter.Allow()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// Prune forgets keys idle for longer than idle.
func (k *Keyed) Prune(idle time.Duration) {
	cutoff := k.now().Add(-idle)

	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

// RunCleanup prunes idle keys every interval until ctx is done.
func (k *Keyed) RunCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Prune(idle)
		}
	}
}
