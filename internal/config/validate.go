// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true,
}

var validCacheBackends = map[string]bool{
	"memory": true, "redis": true, "none": true, "": true,
}

// Validate checks an effective configuration. It is called by the loader
// after every load and by Holder before swapping in a reloaded config.
func Validate(cfg Config) error {
	if err := validateEngineURL("engine_url", cfg.EngineURL); err != nil {
		return err
	}
	if cfg.ModelURL != "" {
		if err := validateEngineURL("model_url", cfg.ModelURL); err != nil {
			return err
		}
	}

	if cfg.Timeout < time.Second || cfg.Timeout > 10*time.Minute {
		return fmt.Errorf("timeout must be between 1s and 10m, got %s", cfg.Timeout)
	}
	if cfg.Retries < 0 || cfg.Retries > 10 {
		return fmt.Errorf("retries must be between 0 and 10, got %d", cfg.Retries)
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %g", cfg.RateLimit)
	}
	if cfg.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1, got %d", cfg.RateBurst)
	}

	if utf8.RuneCountInString(cfg.CSVSeparator) != 1 {
		return fmt.Errorf("csv separator must be a single character, got %q", cfg.CSVSeparator)
	}
	if utf8.RuneCountInString(cfg.CSVDecimal) != 1 {
		return fmt.Errorf("csv decimal must be a single character, got %q", cfg.CSVDecimal)
	}
	if cfg.CSVSeparator == cfg.CSVDecimal {
		return fmt.Errorf("csv separator and decimal must differ, both are %q", cfg.CSVSeparator)
	}

	if !validCacheBackends[cfg.CacheBackend] {
		return fmt.Errorf("cache backend must be memory, redis or none, got %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == "redis" {
		if cfg.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required when cache backend is redis")
		}
		if _, _, err := net.SplitHostPort(cfg.RedisAddr); err != nil {
			return fmt.Errorf("redis_addr must be host:port, got %q: %w", cfg.RedisAddr, err)
		}
	}
	if cfg.RedisDB < 0 || cfg.RedisDB > 15 {
		return fmt.Errorf("redis_db must be between 0 and 15, got %d", cfg.RedisDB)
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", cfg.CacheTTL)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", cfg.LogFormat)
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

// validateEngineURL enforces an absolute http(s) URL whose host survives
// IDNA lookup normalization. Unexpanded `${VAR}` references from the file
// loader fail here with a pointed message.
func validateEngineURL(field, raw string) error {
	if strings.Contains(raw, "${") {
		return fmt.Errorf("%s contains an unexpanded variable reference: %q", field, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%s has no host: %q", field, raw)
	}
	if net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return fmt.Errorf("%s host %q is not a valid hostname: %w", field, host, err)
		}
	}
	return nil
}
