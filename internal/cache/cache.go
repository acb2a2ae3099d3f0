// Package cache provides a concurrent-safe TTL cache for read paths that are
// expensive or hit frequently, such as the popular-cities list.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// TTLCache is a mutex-guarded map with per-entry expiry. Concurrent callers
// that miss may compute the same value redundantly; the last writer wins.
// That race is acceptable for this cache and deliberately not locked out.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	hits    atomic.Int64
	misses  atomic.Int64

	// now is swappable for expiry tests.
	now func() time.Time
}

type entry struct {
	value     any
	createdAt time.Time
}

// Stats contains cache performance counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a TTLCache with the given default time-to-live.
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached value. The second return is false on miss or expiry.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		delete(c.entries, key)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Put stores a value under the key, resetting its TTL.
func (c *TTLCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, createdAt: c.now()}
}

// GetOrCompute returns the cached value for the key, computing and storing it
// on miss.
func (c *TTLCache) GetOrCompute(key string, compute func() any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Put(key, v)
	return v
}

// Invalidate removes a single entry.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll removes every entry.
func (c *TTLCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats returns cache performance counters.
func (c *TTLCache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{Entries: entries, Hits: hits, Misses: misses, HitRate: hitRate}
}
