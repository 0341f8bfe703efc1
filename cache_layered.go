package networkkit

import (
	"context"
	"errors"
	"time"
)

// DefaultPromotionTTL is how long a durable hit stays in memory after
// promotion when no promotion TTL is configured. It is deliberately a
// cache-layer constant, independent of the entry's original TTL.
const DefaultPromotionTTL = 5 * time.Minute

// TieredCache composes a fast tier and a durable tier into one CacheStore.
// Reads go memory-first; a durable hit is promoted into memory so repeated
// reads amortize durable-storage latency without the durable layer tracking
// recency itself. Writes, removals and clears fan out to both tiers
// unconditionally: a durable failure never blocks or invalidates the memory
// write.
type TieredCache struct {
	memory       CacheStore
	durable      CacheStore
	promotionTTL time.Duration
}

// NewTieredCache composes the two tiers. A non-positive promotionTTL falls
// back to DefaultPromotionTTL.
func NewTieredCache(memory, durable CacheStore, promotionTTL time.Duration) *TieredCache {
	if promotionTTL <= 0 {
		promotionTTL = DefaultPromotionTTL
	}
	return &TieredCache{memory: memory, durable: durable, promotionTTL: promotionTTL}
}

// Store implements the CacheStore interface.
func (c *TieredCache) Store(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	memErr := c.memory.Store(ctx, key, data, ttl)
	durErr := c.durable.Store(ctx, key, data, ttl)
	return errors.Join(memErr, durErr)
}

// Retrieve implements the CacheStore interface.
func (c *TieredCache) Retrieve(ctx context.Context, key string) ([]byte, bool) {
	if data, ok := c.memory.Retrieve(ctx, key); ok {
		return data, true
	}
	data, ok := c.durable.Retrieve(ctx, key)
	if !ok {
		return nil, false
	}
	// Promotion is best effort; the durable hit is returned either way.
	_ = c.memory.Store(ctx, key, data, c.promotionTTL)
	return data, true
}

// Remove implements the CacheStore interface.
func (c *TieredCache) Remove(ctx context.Context, key string) error {
	memErr := c.memory.Remove(ctx, key)
	durErr := c.durable.Remove(ctx, key)
	return errors.Join(memErr, durErr)
}

// Clear implements the CacheStore interface.
func (c *TieredCache) Clear(ctx context.Context) error {
	memErr := c.memory.Clear(ctx)
	durErr := c.durable.Clear(ctx)
	return errors.Join(memErr, durErr)
}
