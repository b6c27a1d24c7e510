package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// rateLimitPrefix namespaces limiter keys in Redis.
const rateLimitPrefix = "ratelimit:auth:"

// tokenBucketScript refills and consumes in one atomic step.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- key TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter is a token bucket shared by every instance that uses the
// same Redis. Keys are hashed before they are stored.
type RedisLimiter struct {
	cache         *Cache
	ratePerMinute int
	burst         int
	ttl           time.Duration
}

// NewRedisLimiter creates a limiter refilling ratePerMinute tokens per
// minute up to burst.
func NewRedisLimiter(c *Cache, ratePerMinute, burst int) *RedisLimiter {
	ttl := 2 * time.Minute
	if ratePerMinute > 0 && burst > 0 {
		// Long enough for an empty bucket to refill completely.
		if full := time.Duration(burst) * time.Minute / time.Duration(ratePerMinute); full > ttl {
			ttl = full + time.Minute
		}
	}
	return &RedisLimiter{
		cache:         c,
		ratePerMinute: ratePerMinute,
		burst:         burst,
		ttl:           ttl,
	}
}

// Allow consumes one token for key. Redis errors are returned alongside an
// allowing result so callers can fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	if l.ratePerMinute <= 0 {
		return unlimited(l.burst), nil
	}

	ratePerSecond := float64(l.ratePerMinute) / 60.0
	res, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{l.cache.Key(rateLimitPrefix + hashKey(key))},
		ratePerSecond, l.burst, time.Now().Unix(), int(l.ttl.Seconds()),
	).Int64Slice()
	if err != nil {
		return unlimited(l.burst), err
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Limit:      l.ratePerMinute,
		Remaining:  res[2],
		ResetAt:    time.Now().Add(time.Duration(float64(time.Second) / ratePerSecond)),
		RetryAfter: time.Duration(res[1]) * time.Second,
	}, nil
}

func unlimited(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
}

// hashKey creates a truncated SHA256 hash so raw client IPs are not stored.
func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:8])
}
