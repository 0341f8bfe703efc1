package networkkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Store(ctx, "k1", []byte("payload"), time.Minute))

	got, ok := c.Retrieve(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	_, ok = c.Retrieve(ctx, "absent")
	assert.False(t, ok)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Store(ctx, "k1", []byte("old"), time.Minute))
	require.NoError(t, c.Store(ctx, "k1", []byte("new"), time.Minute))

	got, ok := c.Retrieve(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Store(ctx, "k1", []byte("payload"), 10*time.Millisecond))

	_, ok := c.Retrieve(ctx, "k1")
	require.True(t, ok, "entry should be live before its TTL elapses")

	time.Sleep(20 * time.Millisecond)

	_, ok = c.Retrieve(ctx, "k1")
	assert.False(t, ok, "entry should expire after its TTL")
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestMemoryCacheEntryCountEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCacheWithLimits(1, 4, 1<<20)

	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, c.Store(ctx, key, []byte("v"), time.Minute))
	}

	assert.LessOrEqual(t, c.Len(), 4, "eviction should keep the shard at its entry bound")

	// The most recent insert always survives.
	_, ok := c.Retrieve(ctx, "k7")
	assert.True(t, ok)
}

func TestMemoryCacheByteBoundEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCacheWithLimits(1, 1024, 100)

	big := make([]byte, 60)
	require.NoError(t, c.Store(ctx, "a", big, time.Minute))
	require.NoError(t, c.Store(ctx, "b", big, time.Minute))

	// Storing b pushed the shard over 100 bytes, so a must have been evicted.
	_, ok := c.Retrieve(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Retrieve(ctx, "b")
	assert.True(t, ok)
}

func TestMemoryCacheRejectsOversizedPayload(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCacheWithLimits(1, 1024, 100)

	require.NoError(t, c.Store(ctx, "small", []byte("fits"), time.Minute))

	// A payload beyond the shard byte bound is not cached and must not
	// evict the entries that do fit.
	big := make([]byte, 150)
	require.NoError(t, c.Store(ctx, "big", big, time.Minute))

	_, ok := c.Retrieve(ctx, "big")
	assert.False(t, ok, "oversized payload must not be cached")
	_, ok = c.Retrieve(ctx, "small")
	assert.True(t, ok, "fitting entries must survive an oversized store")
	assert.Equal(t, 1, c.Len())

	// Overwriting an existing key with an oversized payload drops the key
	// rather than serving the stale value.
	require.NoError(t, c.Store(ctx, "small", big, time.Minute))
	_, ok = c.Retrieve(ctx, "small")
	assert.False(t, ok)
}

func TestMemoryCacheLRUOrder(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCacheWithLimits(1, 2, 1<<20)

	require.NoError(t, c.Store(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Store(ctx, "b", []byte("2"), time.Minute))

	// Touch a so b becomes the eviction candidate.
	_, ok := c.Retrieve(ctx, "a")
	require.True(t, ok)

	require.NoError(t, c.Store(ctx, "c", []byte("3"), time.Minute))

	_, ok = c.Retrieve(ctx, "a")
	assert.True(t, ok, "recently read entry should survive eviction")
	_, ok = c.Retrieve(ctx, "b")
	assert.False(t, ok, "least recently used entry should be evicted")
}

func TestMemoryCacheRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Store(ctx, "k1", []byte("1"), time.Minute))
	require.NoError(t, c.Store(ctx, "k2", []byte("2"), time.Minute))

	require.NoError(t, c.Remove(ctx, "k1"))
	_, ok := c.Retrieve(ctx, "k1")
	assert.False(t, ok)

	// Removing an absent key is a no-op.
	require.NoError(t, c.Remove(ctx, "k1"))

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())

	// Clearing an already empty cache succeeds.
	require.NoError(t, c.Clear(ctx))
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i%20)
				_ = c.Store(ctx, key, []byte("payload"), time.Minute)
				_, _ = c.Retrieve(ctx, key)
				if i%7 == 0 {
					_ = c.Remove(ctx, key)
				}
			}
		}(g)
	}
	wg.Wait()
}
