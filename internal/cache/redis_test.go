// SPDX-License-Identifier: EUPL-1.2

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quintel/goetm/models"
)

// setupMiniRedis starts an in-process Redis server and wires a cache to it.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := &RedisCache{
		client: client,
		logger: zerolog.Nop(),
	}

	return mr, cache
}

func TestRedisCacheSetGet(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	cache.Set("scenario:1:header", `{"id":1}`, 5*time.Minute)

	val, found := cache.Get("scenario:1:header")
	if !found {
		t.Fatal("expected value to be found")
	}
	if val != `{"id":1}` {
		t.Errorf("got %v", val)
	}

	stats := cache.Stats()
	if stats.Sets != 1 || stats.Hits != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRedisCacheGetMissing(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	if _, found := cache.Get("absent"); found {
		t.Fatal("expected miss")
	}
	if stats := cache.Stats(); stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}

func TestRedisCacheDelete(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	cache.Set("key", "value", time.Minute)
	cache.Delete("key")

	if _, found := cache.Get("key"); found {
		t.Fatal("expected entry to be gone")
	}
}

func TestRedisCacheClear(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)
	cache.Clear()

	if size := cache.Stats().CurrentSize; size != 0 {
		t.Errorf("size after clear = %d, want 0", size)
	}
}

func TestRedisCacheRoundTripsStructures(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	cache.Set("doc", map[string]any{"area_code": "nl2019"}, time.Minute)

	val, found := cache.Get("doc")
	if !found {
		t.Fatal("expected value to be found")
	}
	doc, ok := val.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", val)
	}
	if doc["area_code"] != "nl2019" {
		t.Errorf("unexpected document: %v", doc)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	cache.Set("short-lived", "value", time.Minute)
	mr.FastForward(2 * time.Minute)

	if _, found := cache.Get("short-lived"); found {
		t.Fatal("expected entry to expire")
	}
}

func TestRedisCacheHealthCheck(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	if err := cache.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
}

func TestScenarioCacheOnRedis(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	defer mr.Close()

	sc := NewScenarioCache(cache, time.Minute)
	sc.SetScenario(&models.Scenario{ID: 648696, AreaCode: "nl2019", EndYear: 2050})

	scenario, found := sc.Scenario(648696)
	if !found {
		t.Fatal("expected cached scenario")
	}
	if scenario.AreaCode != "nl2019" || scenario.EndYear != 2050 {
		t.Errorf("unexpected scenario: %+v", scenario)
	}
}
