package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an idle client entry survives before pruning
const staleAfter = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter tracks a token bucket per client identity. Tokens refill at
// the configured per-minute rate with a burst of the same size, so a quiet
// client can submit a short run of scans without tripping the limit.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perMinute int
	lastPrune time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		perMinute: perMinute,
		lastPrune: time.Now(),
	}
}

// Allow reports whether the client may proceed. A non-positive configured
// rate disables limiting.
func (l *rateLimiter) Allow(client string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > staleAfter {
		for key, entry := range l.clients {
			if now.Sub(entry.lastSeen) > staleAfter {
				delete(l.clients, key)
			}
		}
		l.lastPrune = now
	}

	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute),
		}
		l.clients[client] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}
