// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are probed, in order, when no explicit config path is
// given.
var DefaultFileNames = []string{"goetm.yaml", "goetm.yml", "goetm.toml"}

// Loader loads configuration with the precedence ENV > file > defaults.
// The order is strict: defaults, then the file (parsed strictly), then
// environment overrides, then validation of the final result.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys records every environment key the loader looked at,
	// so tooling can report which variables actually took part.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader for an optional config file path. An empty
// path means defaults and environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ResolveDefaultPath returns the first default config file present in dir,
// or an empty string when none exists.
func ResolveDefaultPath(dir string) string {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load produces the effective configuration. A .env file in the working
// directory is applied first (existing environment wins), then defaults,
// file and environment are merged and the result validated.
func (l *Loader) Load() (Config, error) {
	// godotenv.Load never overwrites variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	WarnLegacyToken()

	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := LoadFileConfig(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.OutputDir); err == nil {
		cfg.OutputDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		EngineURL:    DefaultEngineURL,
		ModelURL:     DefaultModelURL,
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		RateLimit:    DefaultRateLimit,
		RateBurst:    DefaultRateBurst,
		CSVSeparator: DefaultCSVSeparator,
		CSVDecimal:   DefaultCSVDecimal,
		CacheBackend: DefaultCacheBackend,
		CacheTTL:     DefaultCacheTTL,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		OutputDir:    DefaultOutputDir,
	}
}

// LoadFileConfig parses a config file without applying defaults or
// environment overrides. YAML files are decoded strictly (unknown fields
// are fatal, multiple documents are rejected); TOML decoding rejects
// unknown keys through DisallowUnknownFields. `${VAR}` references are
// expanded from the environment before decoding; unset variables keep
// the literal text.
func LoadFileConfig(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	// #nosec G304 -- config file paths are provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	data = expandEnvRefs(data)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".toml":
		return parseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config format: %s (use .yaml, .yml or .toml)", ext)
	}
}

func parseYAML(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func parseTOML(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&fileCfg); err != nil {
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	return &fileCfg, nil
}

// expandEnvRefs replaces ${VAR} references with the variable's value.
// Unset variables keep the literal `${VAR}` text so strict validation can
// point at them instead of silently producing empty values.
func expandEnvRefs(data []byte) []byte {
	return []byte(os.Expand(string(data), func(name string) string {
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return "${" + name + "}"
	}))
}

func mergeFileConfig(cfg *Config, fileCfg *FileConfig) {
	if fileCfg.EngineURL != "" {
		cfg.EngineURL = fileCfg.EngineURL
	}
	if fileCfg.ModelURL != "" {
		cfg.ModelURL = fileCfg.ModelURL
	}
	if fileCfg.Token != "" {
		cfg.Token = fileCfg.Token
	}
	if fileCfg.Timeout != "" {
		if d, err := time.ParseDuration(fileCfg.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if fileCfg.Retries != nil {
		cfg.Retries = *fileCfg.Retries
	}
	if fileCfg.RateLimit != nil {
		cfg.RateLimit = *fileCfg.RateLimit
	}
	if fileCfg.RateBurst != nil {
		cfg.RateBurst = *fileCfg.RateBurst
	}
	if fileCfg.CSV != nil {
		if fileCfg.CSV.Separator != "" {
			cfg.CSVSeparator = fileCfg.CSV.Separator
		}
		if fileCfg.CSV.Decimal != "" {
			cfg.CSVDecimal = fileCfg.CSV.Decimal
		}
	}
	if fileCfg.Cache != nil {
		if fileCfg.Cache.Backend != "" {
			cfg.CacheBackend = fileCfg.Cache.Backend
		}
		if fileCfg.Cache.TTL != "" {
			if d, err := time.ParseDuration(fileCfg.Cache.TTL); err == nil {
				cfg.CacheTTL = d
			}
		}
		if fileCfg.Cache.RedisAddr != "" {
			cfg.RedisAddr = fileCfg.Cache.RedisAddr
		}
		if fileCfg.Cache.RedisDB != nil {
			cfg.RedisDB = *fileCfg.Cache.RedisDB
		}
	}
	if fileCfg.Log != nil {
		if fileCfg.Log.Level != "" {
			cfg.LogLevel = fileCfg.Log.Level
		}
		if fileCfg.Log.Format != "" {
			cfg.LogFormat = fileCfg.Log.Format
		}
	}
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
}

// Environment wins over file values. Token falls back to the legacy
// ETM_ACCESS_TOKEN name when ETM_API_TOKEN is unset.
func (l *Loader) mergeEnvConfig(cfg *Config) {
	cfg.EngineURL = l.envString(EnvEngineURL, cfg.EngineURL)
	cfg.ModelURL = l.envString(EnvModelURL, cfg.ModelURL)
	cfg.Token = l.envString(EnvToken, l.envString(EnvLegacyToken, cfg.Token))
	cfg.Timeout = l.envDuration(EnvTimeout, cfg.Timeout)
	cfg.Retries = l.envInt(EnvRetries, cfg.Retries)
	cfg.RateLimit = l.envFloat(EnvRateLimit, cfg.RateLimit)
	cfg.RateBurst = l.envInt(EnvRateBurst, cfg.RateBurst)
	cfg.CSVSeparator = l.envString(EnvCSVSeparator, cfg.CSVSeparator)
	cfg.CSVDecimal = l.envString(EnvCSVDecimal, cfg.CSVDecimal)
	cfg.CacheBackend = l.envString(EnvCacheBackend, cfg.CacheBackend)
	cfg.CacheTTL = l.envDuration(EnvCacheTTL, cfg.CacheTTL)
	cfg.RedisAddr = l.envString(EnvRedisAddr, cfg.RedisAddr)
	cfg.RedisDB = l.envInt(EnvRedisDB, cfg.RedisDB)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = l.envString(EnvLogFormat, cfg.LogFormat)
	cfg.OutputDir = l.envString(EnvOutputDir, cfg.OutputDir)
}

// Wrapper methods for mechanical tracking of consumed keys.

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}
