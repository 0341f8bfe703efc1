package networkkit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed durable cache tier.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// KeyPrefix namespaces this pipeline's entries within a shared instance.
	KeyPrefix string
}

// Validate checks the configuration for values that cannot work.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis cache: address is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis cache: database index must be non-negative")
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("redis cache: pool size must be non-negative")
	}
	return nil
}

// RedisCache is a durable CacheStore backed by Redis. TTLs are enforced
// natively by the server, so expired entries are absent without any local
// sweeping. Read errors degrade to cache misses; the pipeline treats cache
// reads as best effort.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache validates the configuration, connects and pings the server.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "networkkit:"
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

// Store implements the CacheStore interface.
func (c *RedisCache) Store(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("redis cache: negative ttl")
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Retrieve implements the CacheStore interface.
func (c *RedisCache) Retrieve(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// redis.Nil is an ordinary miss; connectivity problems also read as
		// misses and the pipeline falls through to the network.
		return nil, false
	}
	return data, true
}

// Remove implements the CacheStore interface.
func (c *RedisCache) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Clear implements the CacheStore interface. Only keys under this cache's
// prefix are removed.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 128 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
