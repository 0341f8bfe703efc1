package networkkit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const (
	defaultShardCount      = 16
	defaultEntriesPerShard = 1024
	defaultBytesPerShard   = 4 << 20
)

// MemoryCache is a sharded in-process CacheStore bounded by entry count and
// total payload bytes per shard. Capacity pressure evicts in LRU order,
// independently of TTL expiration; expired entries are dropped lazily on
// read.
type MemoryCache struct {
	shards    []*memoryShard
	shardMask uint64
}

type memoryShard struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	head, tail *memoryEntry

	count      int64
	bytes      int64
	maxEntries int64
	maxBytes   int64
}

type memoryEntry struct {
	key        string
	payload    []byte
	expiresAt  int64
	prev, next *memoryEntry
}

// NewMemoryCache creates a memory cache with default limits (16 shards,
// 1024 entries and 4 MiB of payload per shard).
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithLimits(defaultShardCount, defaultEntriesPerShard, defaultBytesPerShard)
}

// NewMemoryCacheWithLimits creates a memory cache with explicit bounds.
// shardCount is rounded up to a power of two; non-positive limits fall back
// to defaults.
func NewMemoryCacheWithLimits(shardCount, maxEntriesPerShard int, maxBytesPerShard int64) *MemoryCache {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shardCount = nextPowerOf2(shardCount)
	if maxEntriesPerShard <= 0 {
		maxEntriesPerShard = defaultEntriesPerShard
	}
	if maxBytesPerShard <= 0 {
		maxBytesPerShard = defaultBytesPerShard
	}

	shards := make([]*memoryShard, shardCount)
	for i := range shards {
		shards[i] = &memoryShard{
			entries:    make(map[string]*memoryEntry),
			maxEntries: int64(maxEntriesPerShard),
			maxBytes:   maxBytesPerShard,
		}
	}
	return &MemoryCache{shards: shards, shardMask: uint64(shardCount - 1)}
}

// Store implements the CacheStore interface.
func (c *MemoryCache) Store(_ context.Context, key string, data []byte, ttl time.Duration) error {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing := shard.entries[key]; existing != nil {
		shard.unlink(existing)
	}

	// A payload that cannot fit within the shard's byte bound is not cached
	// at all; evicting everything for it would still leave the bound broken.
	if int64(len(data)) > shard.maxBytes {
		return nil
	}

	entry := &memoryEntry{
		key:       key,
		payload:   data,
		expiresAt: time.Now().Add(ttl).UnixNano(),
	}

	// Make room before inserting; both bounds can trigger eviction.
	for shard.count+1 > shard.maxEntries || shard.bytes+int64(len(data)) > shard.maxBytes {
		if !shard.evictOldest() {
			break
		}
	}

	shard.entries[key] = entry
	shard.link(entry)
	return nil
}

// Retrieve implements the CacheStore interface.
func (c *MemoryCache) Retrieve(_ context.Context, key string) ([]byte, bool) {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry := shard.entries[key]
	if entry == nil {
		return nil, false
	}
	if time.Now().UnixNano() > entry.expiresAt {
		shard.unlink(entry)
		return nil, false
	}

	// Refresh recency.
	shard.moveToFront(entry)
	return entry.payload, true
}

// Remove implements the CacheStore interface.
func (c *MemoryCache) Remove(_ context.Context, key string) error {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if entry := shard.entries[key]; entry != nil {
		shard.unlink(entry)
	}
	return nil
}

// Clear implements the CacheStore interface.
func (c *MemoryCache) Clear(context.Context) error {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.entries = make(map[string]*memoryEntry)
		shard.head, shard.tail = nil, nil
		shard.count, shard.bytes = 0, 0
		shard.mu.Unlock()
	}
	return nil
}

// Len returns the total number of live entries, expired ones included until
// their lazy eviction.
func (c *MemoryCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += int(shard.count)
		shard.mu.Unlock()
	}
	return total
}

func (c *MemoryCache) shard(key string) *memoryShard {
	h := fnv.New64a()
	h.Write([]byte(key))
	return c.shards[h.Sum64()&c.shardMask]
}

// link inserts at the head (most recent) and updates accounting.
func (s *memoryShard) link(entry *memoryEntry) {
	entry.prev = nil
	entry.next = s.head
	if s.head != nil {
		s.head.prev = entry
	}
	s.head = entry
	if s.tail == nil {
		s.tail = entry
	}
	s.count++
	s.bytes += int64(len(entry.payload))
}

// unlink removes from both the map and the LRU chain.
func (s *memoryShard) unlink(entry *memoryEntry) {
	delete(s.entries, entry.key)
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		s.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		s.tail = entry.prev
	}
	entry.prev, entry.next = nil, nil
	s.count--
	s.bytes -= int64(len(entry.payload))
}

func (s *memoryShard) moveToFront(entry *memoryEntry) {
	if s.head == entry {
		return
	}
	if entry.prev != nil {
		entry.prev.next = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		s.tail = entry.prev
	}
	entry.prev = nil
	entry.next = s.head
	if s.head != nil {
		s.head.prev = entry
	}
	s.head = entry
}

func (s *memoryShard) evictOldest() bool {
	if s.tail == nil {
		return false
	}
	s.unlink(s.tail)
	return true
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
