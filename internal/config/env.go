// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quintel/goetm/internal/log"
)

// Environment keys consumed by the loader.
const (
	EnvEngineURL    = "ETM_ENGINE_URL"
	EnvModelURL     = "ETM_MODEL_URL"
	EnvToken        = "ETM_API_TOKEN"
	EnvLegacyToken  = "ETM_ACCESS_TOKEN"
	EnvTimeout      = "ETM_TIMEOUT"
	EnvRetries      = "ETM_RETRIES"
	EnvRateLimit    = "ETM_RATE_LIMIT"
	EnvRateBurst    = "ETM_RATE_BURST"
	EnvCSVSeparator = "ETM_CSV_SEPARATOR"
	EnvCSVDecimal   = "ETM_CSV_DECIMAL"
	EnvCacheBackend = "ETM_CACHE_BACKEND"
	EnvCacheTTL     = "ETM_CACHE_TTL"
	EnvRedisAddr    = "ETM_REDIS_ADDR"
	EnvRedisDB      = "ETM_REDIS_DB"
	EnvLogLevel     = "ETM_LOG_LEVEL"
	EnvLogFormat    = "ETM_LOG_FORMAT"
	EnvOutputDir    = "ETM_OUTPUT_DIR"
)

// ParseString reads a string from an environment variable or returns the
// default. The source of the value is logged at debug for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			logEnvDefault(logger, key, defaultValue)
			return defaultValue
		}
		if isSensitiveKey(key) {
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		} else {
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	logEnvDefault(logger, key, defaultValue)
	return defaultValue
}

// ParseInt reads an integer from an environment variable, falling back to
// the default on absence, emptiness or parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseFloat reads a float from an environment variable, falling back to
// the default on absence, emptiness or parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a Go duration ("30s", "1m") from an environment
// variable, falling back to the default on absence or parse errors.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

func logEnvDefault(logger zerolog.Logger, key, defaultValue string) {
	logger.Debug().
		Str("key", key).
		Str("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range []string{"token", "password", "secret", "credential"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// WarnLegacyToken logs when only the pre-1.x ETM_ACCESS_TOKEN variable is
// set. The value is still honoured, the name is deprecated.
func WarnLegacyToken() {
	if os.Getenv(EnvLegacyToken) != "" && os.Getenv(EnvToken) == "" {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("key", EnvLegacyToken).
			Str("replacement", EnvToken).
			Msg("deprecated environment variable in use")
	}
}
