package ai

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused per-key limiter is kept
const idleLimiterTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter applies a separate token bucket to every key (user id)
type KeyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*keyedLimiter
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastPrune time.Time
}

// NewKeyedLimiter allows perMinute requests per key with the given burst
func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*keyedLimiter),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed now
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	kl, ok := l.limiters[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = kl
	}
	kl.lastSeen = now
	return kl.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < idleLimiterTTL {
		return
	}
	l.lastPrune = now
	for k, kl := range l.limiters {
		if now.Sub(kl.lastSeen) > idleLimiterTTL {
			delete(l.limiters, k)
		}
	}
}
