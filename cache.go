package networkkit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CacheStore is the capability interface for response caching. Expired
// entries are logically absent: Retrieve on an expired-but-present entry
// reports a miss, never stale data. Implementations own their internal
// synchronization and are safe for concurrent use.
type CacheStore interface {
	Store(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Retrieve(ctx context.Context, key string) ([]byte, bool)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheMode selects which configured cache tier a request consults.
type CacheMode int

const (
	// CacheOff bypasses caching entirely.
	CacheOff CacheMode = iota
	// CacheMemory consults only the in-process tier.
	CacheMemory
	// CacheDurable consults only the durable tier (disk or Redis).
	CacheDurable
	// CacheHybrid consults memory first, falls back to durable and promotes
	// durable hits into memory.
	CacheHybrid
)

// CachePolicy is a request's caching directive. A zero TTL falls back to the
// pipeline's default TTL.
type CachePolicy struct {
	Mode CacheMode
	TTL  time.Duration
}

// hashKey derives a deterministic, collision-resistant file-safe name from a
// cache key.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
