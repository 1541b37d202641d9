// SPDX-License-Identifier: EUPL-1.2

// Package batch runs engine operations across many scenarios at once.
// A bounded worker pool fans out per-scenario requests, per-scenario
// results are cached with a TTL, and every batch run is tagged with a
// run id in the logs.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quintel/goetm/etm"
	"github.com/quintel/goetm/internal/log"
	"github.com/quintel/goetm/models"
)

const (
	defaultWorkers  = 8
	defaultCacheTTL = 5 * time.Minute
)

// Options configures a Pool.
type Options struct {
	// Workers bounds the number of concurrent engine requests.
	Workers int
	// CacheTTL is how long per-scenario results stay cached. Zero selects
	// the default; a negative value disables caching.
	CacheTTL time.Duration

	Logger *zerolog.Logger
}

// taskResult carries one scenario's outcome through the worker pool.
type taskResult struct {
	scenarioID int
	value      any
}

// Pool fans engine calls out over a bounded worker pool.
type Pool struct {
	client  *etm.Client
	pool    pond.ResultPool[taskResult]
	cache   *ttlcache.Cache[string, any]
	ttl     time.Duration
	logger  zerolog.Logger
	workers int
}

// New creates a pool around an engine client. Close must be called when
// the pool is no longer needed.
func New(client *etm.Client, opts Options) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = log.WithComponent("batch")
	}

	var cache *ttlcache.Cache[string, any]
	if ttl > 0 {
		cache = ttlcache.New(ttlcache.WithTTL[string, any](ttl))
		go cache.Start()
	}

	return &Pool{
		client:  client,
		pool:    pond.NewResultPool[taskResult](workers),
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		workers: workers,
	}
}

// Close drains outstanding work and stops the cache janitor.
func (p *Pool) Close() {
	p.pool.StopAndWait()
	if p.cache != nil {
		p.cache.Stop()
	}
}

// Scenarios fetches scenario headers for all ids.
func (p *Pool) Scenarios(ctx context.Context, scenarioIDs []int) (map[int]*models.Scenario, error) {
	results, err := p.run(ctx, "scenarios", scenarioIDs, func(ctx context.Context, id int) (any, error) {
		return p.client.Scenario(ctx, id)
	}, func(id int) string { return cacheKey(id, "header") })
	if err != nil {
		return nil, err
	}

	out := make(map[int]*models.Scenario, len(results))
	for id, v := range results {
		out[id] = v.(*models.Scenario)
	}
	return out, nil
}

// Inputs fetches the input collections of all ids.
func (p *Pool) Inputs(ctx context.Context, scenarioIDs []int) (map[int]*models.InputCollection, error) {
	results, err := p.run(ctx, "inputs", scenarioIDs, func(ctx context.Context, id int) (any, error) {
		return p.client.Inputs(ctx, id)
	}, func(id int) string { return cacheKey(id, "inputs") })
	if err != nil {
		return nil, err
	}

	out := make(map[int]*models.InputCollection, len(results))
	for id, v := range results {
		out[id] = v.(*models.InputCollection)
	}
	return out, nil
}

// UserValues returns the effective slider settings of all ids, one
// key-to-value map per scenario.
func (p *Pool) UserValues(ctx context.Context, scenarioIDs []int) (map[int]map[string]any, error) {
	inputs, err := p.Inputs(ctx, scenarioIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[int]map[string]any, len(inputs))
	for id, coll := range inputs {
		out[id] = coll.UserValues()
	}
	return out, nil
}

// SetUserValues applies per-scenario slider settings concurrently and
// invalidates the cached state of every touched scenario.
func (p *Pool) SetUserValues(ctx context.Context, values map[int]map[string]any) error {
	ids := make([]int, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	_, err := p.run(ctx, "set_user_values", ids, func(ctx context.Context, id int) (any, error) {
		if _, err := p.client.SetUserValues(ctx, id, values[id]); err != nil {
			return nil, err
		}
		p.invalidate(id)
		return struct{}{}, nil
	}, nil)
	return err
}

// Query resolves the same gqueries against all ids.
func (p *Pool) Query(ctx context.Context, scenarioIDs []int, gqueries []string) (map[int]models.GqueryResults, error) {
	keys := append([]string(nil), gqueries...)
	sort.Strings(keys)
	suffix := "gqueries:" + strings.Join(keys, ",")

	results, err := p.run(ctx, "gqueries", scenarioIDs, func(ctx context.Context, id int) (any, error) {
		return p.client.Query(ctx, id, gqueries)
	}, func(id int) string { return cacheKey(id, suffix) })
	if err != nil {
		return nil, err
	}

	out := make(map[int]models.GqueryResults, len(results))
	for id, v := range results {
		out[id] = v.(models.GqueryResults)
	}
	return out, nil
}

// Curves fetches hourly curves of the given kinds for all ids. The kinds
// of one scenario are fetched together in a heterogeneous fan-out, the
// scenarios themselves go through the worker pool.
func (p *Pool) Curves(ctx context.Context, scenarioIDs []int, kinds []string) (map[int]map[string]*models.Frame, error) {
	// Cache key is order-independent: the same kind set must hit
	// regardless of how the caller lists it.
	sorted := append([]string(nil), kinds...)
	sort.Strings(sorted)
	suffix := "curves:" + strings.Join(sorted, ",")

	results, err := p.run(ctx, "curves", scenarioIDs, func(ctx context.Context, id int) (any, error) {
		frames := make(map[string]*models.Frame, len(kinds))
		g, gctx := errgroup.WithContext(ctx)
		var mu sync.Mutex

		for _, kind := range kinds {
			g.Go(func() error {
				frame, err := p.client.Curve(gctx, id, kind)
				if err != nil {
					return fmt.Errorf("curve %s: %w", kind, err)
				}
				mu.Lock()
				frames[kind] = frame
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return frames, nil
	}, func(id int) string { return cacheKey(id, suffix) })
	if err != nil {
		return nil, err
	}

	out := make(map[int]map[string]*models.Frame, len(results))
	for id, v := range results {
		out[id] = v.(map[string]*models.Frame)
	}
	return out, nil
}

// run executes fetch for every scenario id through the worker pool. A
// non-nil key func enables the result cache for the operation.
func (p *Pool) run(
	ctx context.Context,
	operation string,
	scenarioIDs []int,
	fetch func(context.Context, int) (any, error),
	key func(int) string,
) (map[int]any, error) {
	runID := uuid.New().String()
	ctx = log.ContextWithRunID(ctx, runID)

	logger := p.logger.With().
		Str("run_id", runID).
		Str("operation", operation).
		Int("scenarios", len(scenarioIDs)).
		Logger()
	logger.Debug().Str("event", "batch.run_start").Msg("starting batch run")
	start := time.Now()

	out := make(map[int]any, len(scenarioIDs))
	pending := make([]int, 0, len(scenarioIDs))

	for _, id := range scenarioIDs {
		if key == nil {
			pending = append(pending, id)
			continue
		}
		if item := p.cacheGet(key(id)); item != nil {
			out[id] = item
			continue
		}
		pending = append(pending, id)
	}

	group := p.pool.NewGroupContext(ctx)
	for _, id := range pending {
		group.SubmitErr(func() (taskResult, error) {
			value, err := fetch(ctx, id)
			if err != nil {
				return taskResult{}, fmt.Errorf("scenario %d: %w", id, err)
			}
			return taskResult{scenarioID: id, value: value}, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		logger.Error().Err(err).Str("event", "batch.run_failed").Msg("batch run failed")
		return nil, fmt.Errorf("batch %s: %w", operation, err)
	}

	for _, result := range results {
		out[result.scenarioID] = result.value
		if key != nil {
			p.cacheSet(key(result.scenarioID), result.value)
		}
	}

	logger.Debug().
		Str("event", "batch.run_done").
		Int("fetched", len(pending)).
		Int("cached", len(scenarioIDs)-len(pending)).
		Dur("duration", time.Since(start)).
		Msg("batch run complete")
	return out, nil
}

func (p *Pool) cacheGet(key string) any {
	if p.cache == nil {
		return nil
	}
	item := p.cache.Get(key)
	if item == nil {
		return nil
	}
	return item.Value()
}

func (p *Pool) cacheSet(key string, value any) {
	if p.cache == nil {
		return
	}
	p.cache.Set(key, value, p.ttl)
}

// invalidate drops every cached resource of one scenario.
func (p *Pool) invalidate(scenarioID int) {
	if p.cache == nil {
		return
	}
	prefix := fmt.Sprintf("scenario:%d:", scenarioID)
	for _, key := range p.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			p.cache.Delete(key)
		}
	}
}

func cacheKey(scenarioID int, resource string) string {
	return fmt.Sprintf("scenario:%d:%s", scenarioID, resource)
}
