package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter throttles requests per key (buyer id) with one token bucket per key.
type KeyedLimiter struct {
	every   time.Duration
	burst   int
	enabled bool
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	limiters  map[string]*entry
	lastSweep time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const minIdleTTL = 10 * time.Minute

// NewKeyedLimiter allows one request per interval for each key with the given burst.
func NewKeyedLimiter(interval time.Duration, burst int, enabled bool) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		every:    interval,
		burst:    burst,
		enabled:  enabled && interval > 0,
		// A bucket may only be dropped once it would have refilled completely.
		idleTTL:  max(minIdleTTL, interval*time.Duration(burst)),
		now:      time.Now,
		limiters: make(map[string]*entry),
	}
}

// Allow reports whether a request for key may proceed and consumes a token when it does.
func (kl *KeyedLimiter) Allow(key string) bool {
	if !kl.enabled {
		return true
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	kl.sweep(now)

	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(kl.every), kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep drops buckets idle long enough to have refilled completely.
func (kl *KeyedLimiter) sweep(now time.Time) {
	if now.Sub(kl.lastSweep) < kl.idleTTL {
		return
	}
	kl.lastSweep = now
	for k, e := range kl.limiters {
		if now.Sub(e.lastSeen) >= kl.idleTTL {
			delete(kl.limiters, k)
		}
	}
}

// GetStats returns current rate limiter statistics
func (kl *KeyedLimiter) GetStats() Stats {
	if !kl.enabled {
		return Stats{Enabled: false}
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	perMinute := 0
	if kl.every > 0 {
		perMinute = int(time.Minute / kl.every)
	}
	return Stats{
		Enabled:        true,
		TrackedKeys:    len(kl.limiters),
		LimitPerMinute: perMinute,
		Burst:          kl.burst,
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled        bool `json:"enabled"`
	TrackedKeys    int  `json:"tracked_keys"`
	LimitPerMinute int  `json:"limit_per_minute"`
	Burst          int  `json:"burst"`
}

// Reset clears all tracked keys (useful for testing)
func (kl *KeyedLimiter) Reset() {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	kl.limiters = make(map[string]*entry)
}
