package crypt

import (
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/riftline/cryptvfs/internal/interfaces"
	"github.com/riftline/cryptvfs/internal/types"
)

// KeyCache is a process-wide, concurrency-safe path -> AES key memoization
// table. Entries are never evicted; the KeyDeriver for a given path runs at
// most once, even under concurrent opens, via a single-flight group keyed
// on the path string.
//
// Identity of a cache entry is the path *string* as observed by the
// caller: two different spellings of the same underlying file are treated
// as distinct entries, matching the behavior of the original driver.
type KeyCache struct {
	mu    sync.RWMutex
	keys  map[string]types.AESKey
	group singleflight.Group

	hits        atomic.Int64
	derivations atomic.Int64
}

var _ interfaces.KeyCache = (*KeyCache)(nil)

// NewKeyCache returns an empty KeyCache. Tests should construct a fresh
// cache per case rather than sharing a package-level singleton, so that
// cases remain hermetic.
func NewKeyCache() *KeyCache {
	return &KeyCache{keys: make(map[string]types.AESKey)}
}

// GetOrInsert returns the cached key for path, invoking derive to populate
// it on first use. A failed derive is never cached: the next call for the
// same path retries derive from scratch.
func (c *KeyCache) GetOrInsert(path string, derive func() ([24]byte, error)) ([24]byte, error) {
	c.mu.RLock()
	if key, ok := c.keys[path]; ok {
		c.mu.RUnlock()
		c.hits.Inc()
		return key, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(path, func() (any, error) {
		// Re-check under the single-flight lock: a concurrent caller may
		// have already populated the entry while we were queued.
		c.mu.RLock()
		if key, ok := c.keys[path]; ok {
			c.mu.RUnlock()
			return key, nil
		}
		c.mu.RUnlock()

		raw, err := derive()
		if err != nil {
			return types.AESKey{}, err
		}
		key := types.AESKey(raw)

		c.mu.Lock()
		c.keys[path] = key
		c.mu.Unlock()
		c.derivations.Inc()
		return key, nil
	})
	if err != nil {
		return [24]byte{}, err
	}
	return v.(types.AESKey), nil
}

// Len reports the number of distinct paths currently cached.
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Stats reports cumulative cache hits and derivations, for diagnostics.
func (c *KeyCache) Stats() (hits, derivations int64) {
	return c.hits.Load(), c.derivations.Load()
}
