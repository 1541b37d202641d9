// SPDX-License-Identifier: EUPL-1.2

package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := newMemoryCache(clockwork.NewFakeClock(), 0)

	c.Set("scenario:1:header", "payload", time.Minute)

	val, found := c.Get("scenario:1:header")
	if !found {
		t.Fatal("expected value to be found")
	}
	if val != "payload" {
		t.Errorf("got %v, want payload", val)
	}

	stats := c.Stats()
	if stats.Sets != 1 || stats.Hits != 1 || stats.CurrentSize != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newMemoryCache(clock, 0)

	c.Set("key", "value", time.Minute)
	clock.Advance(2 * time.Minute)

	if _, found := c.Get("key"); found {
		t.Fatal("expected entry to be expired")
	}
	if stats := c.Stats(); stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newMemoryCache(clockwork.NewFakeClock(), 0)

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	if _, found := c.Get("key"); found {
		t.Fatal("expected entry to be gone")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := newMemoryCache(clockwork.NewFakeClock(), 0)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()

	if size := c.Stats().CurrentSize; size != 0 {
		t.Errorf("size after clear = %d, want 0", size)
	}
}

func TestMemoryCacheDeleteExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newMemoryCache(clock, 0)

	c.Set("stale", "v", time.Minute)
	c.Set("fresh", "v", time.Hour)
	clock.Advance(30 * time.Minute)

	if removed := c.deleteExpired(); removed != 1 {
		t.Fatalf("deleteExpired removed %d entries, want 1", removed)
	}

	stats := c.Stats()
	if stats.Evictions != 1 || stats.CurrentSize != 1 {
		t.Errorf("unexpected stats after cleanup: %+v", stats)
	}
}

func TestMemoryCacheJanitorStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewMemoryCache(10 * time.Millisecond)
	c.Set("key", "value", time.Nanosecond)

	c.Stop()
	c.Stop() // idempotent
}

func TestMemoryCacheJanitorEvicts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newMemoryCache(clock, time.Minute)
	defer c.Stop()

	c.Set("key", "value", time.Second)

	// Wait for the janitor's ticker, then fire it.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Stats().Evictions == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("janitor did not evict, stats: %+v", c.Stats())
}

func TestNopCache(t *testing.T) {
	c := NewNopCache()

	c.Set("key", "value", time.Minute)
	if _, found := c.Get("key"); found {
		t.Fatal("nop cache must never store")
	}
	if stats := c.Stats(); stats != (Stats{}) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
