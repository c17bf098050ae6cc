// Package cache holds values stamped with the version of the source they
// were derived from. A lookup with a different version is a miss, so a
// value can never outlive a change to its source.
package cache

import "sync"

// Cache is a thread-safe, version-stamped LRU cache with a soft limit.
// When the cache exceeds softLimit, the least recently used entries are
// evicted.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*entry[V]
	softLimit int
	tick      int64 // monotonic access counter
	hits      uint64
	misses    uint64
}

type entry[V any] struct {
	value   V
	version uint64
	atime   int64
}

// New creates a cache holding at most softLimit keys. A softLimit below 1
// is treated as 1.
func New[K comparable, V any](softLimit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*entry[V]),
		softLimit: max(softLimit, 1),
	}
}

// Get returns the value stored for key if it was stored with version.
func (c *Cache[K, V]) Get(key K, version uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.version != version {
		c.misses++
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	c.hits++
	return e.value, true
}

// Set stores value for key at version, replacing any older stamp.
func (c *Cache[K, V]) Set(key K, version uint64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	c.entries[key] = &entry[V]{value: value, version: version, atime: c.tick}
	for len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		return true
	}
	return false
}

// Clear removes all entries and resets the counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[V])
	c.tick = 0
	c.hits, c.misses = 0, 0
}

// Stats contains cache statistics.
type Stats struct {
	Len      int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:      len(c.entries),
		Capacity: c.softLimit,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// evictOldest removes the least recently used entry.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest() {
	var (
		oldest K
		atime  int64
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.atime < atime {
			oldest, atime, found = k, e.atime, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}
