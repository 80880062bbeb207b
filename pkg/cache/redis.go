package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379).
	URL string

	// Password for Redis authentication.
	Password string

	// DB is the Redis database number.
	DB int

	// KeyPrefix is prepended to all keys.
	KeyPrefix string

	// DefaultTTL is the default expiration for keys.
	DefaultTTL time.Duration

	// PoolSize is the connection pool size.
	PoolSize int

	// DialTimeout is the connection timeout.
	DialTimeout time.Duration

	// ReadTimeout is the read operation timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the write operation timeout.
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          "redis://localhost:6379",
		DB:           0,
		KeyPrefix:    "alite:",
		DefaultTTL:   time.Hour,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisCache implements Cache using Redis as the backend.
// This is a stub implementation - actual Redis client integration
// would require adding a Redis client dependency (e.g., go-redis).
type RedisCache struct {
	cfg   RedisConfig
	stats Stats
}

// NewRedisCache creates a new Redis-backed cache.
// Note: This is a placeholder. Full implementation requires a Redis client.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	// In a full implementation, this would:
	// 1. Parse the Redis URL
	// 2. Create a connection pool
	// 3. Test the connection
	//
	// For now, we return a stub that can be extended.

	return &RedisCache{
		cfg: cfg,
	}, nil
}

// Get retrieves a value by key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	// Stub: In full implementation, this would call Redis GET
	atomic.AddInt64(&c.stats.Misses, 1)
	return nil, ErrNotFound
}

// Set stores a value with optional TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Stub: In full implementation, this would call Redis SET with EX
	atomic.AddInt64(&c.stats.Sets, 1)
	return nil
}

// Delete removes a key from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	// Stub: In full implementation, this would call Redis DEL
	atomic.AddInt64(&c.stats.Deletes, 1)
	return nil
}

// Has checks if a key exists.
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	// Stub: In full implementation, this would call Redis EXISTS
	return false
}

// Clear removes all entries with the configured prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	// Stub: In full implementation, this would use SCAN + DEL
	return nil
}

// Stats returns cache statistics.
func (c *RedisCache) Stats() Stats {
	// Stub: In full implementation, this would query Redis INFO
	return Stats{
		Hits:    atomic.LoadInt64(&c.stats.Hits),
		Misses:  atomic.LoadInt64(&c.stats.Misses),
		Sets:    atomic.LoadInt64(&c.stats.Sets),
		Deletes: atomic.LoadInt64(&c.stats.Deletes),
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	// Stub: In full implementation, this would close the connection pool
	return nil
}

// prefixKey adds the configured prefix to a key.
func (c *RedisCache) prefixKey(key string) string {
	return c.cfg.KeyPrefix + key
}

// getTTL returns the TTL to use, falling back to default.
func (c *RedisCache) getTTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.cfg.DefaultTTL
}
