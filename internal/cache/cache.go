// SPDX-License-Identifier: EUPL-1.2

// Package cache stores engine responses between calls. Scenario headers and
// input collections rarely change underneath a session, so repeated reads hit
// the cache instead of the engine.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a thread-safe store with per-entry TTL.
type Cache interface {
	// Get returns the stored value, or false when absent or expired.
	Get(key string) (any, bool)
	// Set stores a value for the given lifetime.
	Set(key string, value any, ttl time.Duration)
	// Delete removes one entry.
	Delete(key string)
	// Clear removes every entry.
	Clear()
	// Stats returns hit and miss counters.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache is the in-process Cache backend.
type MemoryCache struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]*entry

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64

	stopJanitor func()
}

// NewMemoryCache creates an in-process cache. A positive cleanupInterval
// starts a janitor goroutine removing expired entries; call Stop to end it.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return newMemoryCache(clockwork.NewRealClock(), cleanupInterval)
}

func newMemoryCache(clock clockwork.Clock, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		clock:   clock,
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		stop := make(chan struct{})
		c.stopJanitor = sync.OnceFunc(func() { close(stop) })
		go c.janitor(cleanupInterval, stop)
	}

	return c
}

func (c *MemoryCache) janitor(interval time.Duration, stop <-chan struct{}) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			c.deleteExpired()
		case <-stop:
			return
		}
	}
}

// Get returns the value stored under key.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || c.clock.Now().After(e.expiresAt) {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key for the given lifetime.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
	c.mu.Unlock()

	c.sets.Add(1)
}

// Delete removes the entry stored under key.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats returns the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

func (c *MemoryCache) deleteExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	count := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}
	c.mu.Unlock()

	c.evictions.Add(int64(count))
	return count
}

// Stop ends the janitor goroutine. Safe to call more than once.
func (c *MemoryCache) Stop() {
	if c.stopJanitor != nil {
		c.stopJanitor()
	}
}

// NopCache discards everything. Used when caching is disabled.
type NopCache struct{}

// NewNopCache returns a cache that never stores.
func NewNopCache() NopCache { return NopCache{} }

func (NopCache) Get(string) (any, bool) { return nil, false }

func (NopCache) Set(string, any, time.Duration) {}

func (NopCache) Delete(string) {}

func (NopCache) Clear() {}

func (NopCache) Stats() Stats { return Stats{} }
