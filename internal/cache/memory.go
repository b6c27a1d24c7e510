package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxMemoryKeys bounds the number of tracked clients before idle ones are
// evicted.
const maxMemoryKeys = 10000

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-process token bucket per key, used when no Redis
// is configured.
type MemoryLimiter struct {
	mu            sync.Mutex
	entries       map[string]*memoryEntry
	limit         rate.Limit
	ratePerMinute int
	burst         int
	idle          time.Duration
	now           func() time.Time
}

// NewMemoryLimiter creates a limiter refilling ratePerMinute tokens per
// minute up to burst.
func NewMemoryLimiter(ratePerMinute, burst int) *MemoryLimiter {
	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Limit(float64(ratePerMinute) / 60.0)
	}
	return &MemoryLimiter{
		entries:       make(map[string]*memoryEntry),
		limit:         limit,
		ratePerMinute: ratePerMinute,
		burst:         burst,
		idle:          10 * time.Minute,
		now:           time.Now,
	}
}

// Allow consumes one token for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (*RateLimitResult, error) {
	if l.ratePerMinute <= 0 {
		return unlimited(l.burst), nil
	}

	now := l.now()
	lim := l.limiter(key, now)

	res := &RateLimitResult{Limit: l.ratePerMinute}
	reservation := lim.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = time.Duration(math.Ceil(delay.Seconds())) * time.Second
		res.ResetAt = now.Add(delay)
		return res, nil
	}

	res.Allowed = true
	res.Remaining = int64(math.Floor(lim.TokensAt(now)))
	res.ResetAt = now.Add(time.Duration(float64(time.Second) / float64(l.limit)))
	return res, nil
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryLimiter) limiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxMemoryKeys {
			l.evictIdle(now)
		}
		entry = &memoryEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (l *MemoryLimiter) evictIdle(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.entries, key)
		}
	}
	if len(l.entries) >= maxMemoryKeys {
		l.entries = make(map[string]*memoryEntry)
	}
}
