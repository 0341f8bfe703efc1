package networkkit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const diskEntrySuffix = ".cache"

// diskEntry is the on-disk encoding: payload plus absolute expiration.
type diskEntry struct {
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DiskCache is a durable CacheStore keeping one file per entry under a
// directory. Filenames are the hex SHA-256 of the cache key, so arbitrary
// keys map to safe, collision-resistant names. Entries survive process
// restarts; expired ones are deleted lazily on read. A single-writer
// discipline per instance keeps concurrent writes from interleaving;
// cross-process coordination is out of scope.
type DiskCache struct {
	dir string
	mu  sync.RWMutex
}

// NewDiskCache creates the storage directory if needed and returns a cache
// over it. Creation is idempotent.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Store implements the CacheStore interface. The entry is written to a
// temporary file and renamed into place so readers never observe a partial
// write.
func (c *DiskCache) Store(_ context.Context, key string, data []byte, ttl time.Duration) error {
	encoded, err := json.Marshal(diskEntry{
		Payload:   data,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Retrieve implements the CacheStore interface.
func (c *DiskCache) Retrieve(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	raw, err := os.ReadFile(c.path(key))
	c.mu.RUnlock()
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Unreadable entries are treated as absent and cleaned up.
		c.mu.Lock()
		_ = os.Remove(c.path(key))
		c.mu.Unlock()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		_ = os.Remove(c.path(key))
		c.mu.Unlock()
		return nil, false
	}
	return entry.Payload, true
}

// Remove implements the CacheStore interface.
func (c *DiskCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear implements the CacheStore interface. Only files this cache wrote are
// removed; anything else in the directory is left alone.
func (c *DiskCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	var firstErr error
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), diskEntrySuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, hashKey(key)+diskEntrySuffix)
}
