// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quintel/goetm/etm"
	"github.com/quintel/goetm/internal/cache"
	"github.com/quintel/goetm/internal/config"
	"github.com/quintel/goetm/internal/log"
)

// app bundles the effective configuration with a ready engine client.
type app struct {
	cfg    config.Config
	client *etm.Client
	logger zerolog.Logger
}

// bootstrap loads configuration and wires the engine client. Logging is
// configured first with safe defaults so config loading itself is
// observable, then the global level follows the loaded config.
func bootstrap(configPath string) (*app, error) {
	log.Configure(log.Config{
		Service: "etmctl",
		Version: version,
	})

	if strings.TrimSpace(configPath) == "" {
		configPath = config.ResolveDefaultPath(".")
	}

	loader := config.NewLoader(configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger := log.WithComponent("etmctl")
	logger.Debug().
		Str("event", "config.loaded").
		Stringer("config", cfg).
		Msg("configuration loaded")

	scenarioCache, err := buildCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := etm.New(cfg.EngineURL, etm.Options{
		Token:          cfg.Token,
		ModelURL:       cfg.ModelURL,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.Retries,
		RateLimit:      rate.Limit(cfg.RateLimit),
		RateLimitBurst: cfg.RateBurst,
		UserAgent:      "etmctl/" + version,
		Cache:          scenarioCache,
	})

	return &app{cfg: cfg, client: client, logger: logger}, nil
}

// buildCache assembles the scenario cache named by the configuration.
// An etmctl invocation is one process, so the memory backend mostly pays
// off within multi-request commands; the redis backend shares entries
// across invocations.
func buildCache(cfg config.Config, logger zerolog.Logger) (etm.ScenarioCache, error) {
	var backend cache.Cache
	switch cfg.CacheBackend {
	case "none":
		return nil, nil
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect cache backend: %w", err)
		}
		backend = redisCache
	default:
		backend = cache.NewMemoryCache(cfg.CacheTTL)
	}
	return cache.NewScenarioCache(backend, cfg.CacheTTL), nil
}

// fail prints an error for the operator and returns the exit code.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// parseScenarioID parses a positional scenario id argument.
func parseScenarioID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("scenario id is required")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid scenario id %q", args[0])
	}
	return id, nil
}

// parseKeyValues parses key=value pairs. Values that parse as numbers
// become float64, "true"/"false" become bool, everything else stays a
// string, matching how the engine types slider settings.
func parseKeyValues(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one key=value pair is required")
	}

	values := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid pair %q (want key=value)", arg)
		}
		values[key] = typedValue(raw)
	}
	return values, nil
}

func typedValue(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
