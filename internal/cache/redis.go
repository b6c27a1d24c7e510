// Package cache holds the Redis client and the rate limiters that guard the
// auth endpoints.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key this service writes, so one Redis
// can be shared with other applications.
const DefaultKeyPrefix = "grocerytracker:"

// Cache is the Redis connection used for shared login and signup
// throttling and reported by the readiness probe.
type Cache struct {
	client    *redis.Client
	keyPrefix string
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyPrefix replaces DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.keyPrefix = prefix }
}

// New connects to redisURL and pings it. The pool is small: only the auth
// limiter and the readiness probe talk to Redis.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.PoolTimeout = 2 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	c := &Cache{client: redis.NewClient(opt), keyPrefix: DefaultKeyPrefix}
	for _, o := range opts {
		o(c)
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return c, nil
}

// Key returns name under the service's key prefix.
func (c *Cache) Key(name string) string {
	return c.keyPrefix + name
}

// Ping satisfies the readiness checker.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the pool; registered as a shutdown hook.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the client for tests that need to flush state.
func (c *Cache) Client() *redis.Client {
	return c.client
}
