// SPDX-License-Identifier: EUPL-1.2

// Package config loads goetm configuration with the precedence
// ENV > file > defaults. Files may be YAML (goetm.yaml, strict) or TOML
// (goetm.toml); a .env file next to the working directory is honoured
// before environment variables are read.
package config

import (
	"fmt"
	"time"
)

// Default values applied before file and environment overrides.
const (
	DefaultEngineURL    = "https://engine.energytransitionmodel.com/api/v3"
	DefaultModelURL     = "https://energytransitionmodel.com"
	DefaultTimeout      = 30 * time.Second
	DefaultRetries      = 4
	DefaultRateLimit    = 10.0
	DefaultRateBurst    = 20
	DefaultCSVSeparator = ","
	DefaultCSVDecimal   = "."
	DefaultCacheBackend = "memory"
	DefaultCacheTTL     = 5 * time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultOutputDir    = "."
)

// Config is the effective application configuration.
type Config struct {
	// EngineURL is the base URL of the ETEngine v3 API.
	EngineURL string
	// ModelURL is the GUI location used to render scenario links. Only
	// meaningful for the public engine unless overridden.
	ModelURL string
	// Token is the personal access token. Empty means anonymous access.
	Token string

	Timeout   time.Duration
	Retries   int
	RateLimit float64
	RateBurst int

	// CSVSeparator and CSVDecimal control CSV rendering of curve and
	// table exports. Both must be single characters and must differ.
	CSVSeparator string
	CSVDecimal   string

	// CacheBackend selects the scenario cache: memory, redis or none.
	CacheBackend string
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int

	LogLevel  string
	LogFormat string

	// OutputDir is where curve and profile CSV files are written.
	OutputDir string

	// Version is stamped by the binary, never read from file or env.
	Version string
}

// CacheEnabled reports whether a scenario cache backend is configured.
func (c Config) CacheEnabled() bool {
	return c.CacheBackend != "" && c.CacheBackend != "none"
}

// Anonymous reports whether requests will be sent without a bearer token.
func (c Config) Anonymous() bool { return c.Token == "" }

// String renders the configuration with secrets masked. The zerolog
// stringer path goes through here, so a Config can never leak its token
// into a log line.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{EngineURL:%s ModelURL:%s Token:%s Timeout:%s Retries:%d RateLimit:%g/%d Cache:%s Log:%s/%s OutputDir:%s}",
		c.EngineURL, c.ModelURL, maskToken(c.Token), c.Timeout, c.Retries,
		c.RateLimit, c.RateBurst, c.CacheBackend, c.LogLevel, c.LogFormat,
		c.OutputDir,
	)
}

func maskToken(token string) string {
	if token == "" {
		return "(anonymous)"
	}
	return "***"
}

// FileConfig mirrors the goetm.yaml / goetm.toml document. Pointer fields
// distinguish "absent" from zero values during the merge.
type FileConfig struct {
	EngineURL string `yaml:"engine_url,omitempty" toml:"engine_url,omitempty" json:"engine_url,omitempty"`
	ModelURL  string `yaml:"model_url,omitempty" toml:"model_url,omitempty" json:"model_url,omitempty"`
	Token     string `yaml:"token,omitempty" toml:"token,omitempty" json:"token,omitempty"`

	Timeout   string   `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries   *int     `yaml:"retries,omitempty" toml:"retries,omitempty" json:"retries,omitempty"`
	RateLimit *float64 `yaml:"rate_limit,omitempty" toml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	RateBurst *int     `yaml:"rate_burst,omitempty" toml:"rate_burst,omitempty" json:"rate_burst,omitempty"`

	CSV   *CSVFileConfig   `yaml:"csv,omitempty" toml:"csv,omitempty" json:"csv,omitempty"`
	Cache *CacheFileConfig `yaml:"cache,omitempty" toml:"cache,omitempty" json:"cache,omitempty"`
	Log   *LogFileConfig   `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`

	OutputDir string `yaml:"output_dir,omitempty" toml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

// CSVFileConfig holds the csv section of a config file.
type CSVFileConfig struct {
	Separator string `yaml:"separator,omitempty" toml:"separator,omitempty" json:"separator,omitempty"`
	Decimal   string `yaml:"decimal,omitempty" toml:"decimal,omitempty" json:"decimal,omitempty"`
}

// CacheFileConfig holds the cache section of a config file.
type CacheFileConfig struct {
	Backend   string `yaml:"backend,omitempty" toml:"backend,omitempty" json:"backend,omitempty"`
	TTL       string `yaml:"ttl,omitempty" toml:"ttl,omitempty" json:"ttl,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisDB   *int   `yaml:"redis_db,omitempty" toml:"redis_db,omitempty" json:"redis_db,omitempty"`
}

// LogFileConfig holds the log section of a config file.
type LogFileConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" toml:"format,omitempty" json:"format,omitempty"`
}

// FileConfigFrom renders an effective Config back into the file document
// shape, with the token redacted. Used by `etmctl config dump`.
func FileConfigFrom(cfg Config) FileConfig {
	retries := cfg.Retries
	rateLimit := cfg.RateLimit
	rateBurst := cfg.RateBurst
	redisDB := cfg.RedisDB

	return FileConfig{
		EngineURL: cfg.EngineURL,
		ModelURL:  cfg.ModelURL,
		Token:     maskToken(cfg.Token),
		Timeout:   cfg.Timeout.String(),
		Retries:   &retries,
		RateLimit: &rateLimit,
		RateBurst: &rateBurst,
		CSV: &CSVFileConfig{
			Separator: cfg.CSVSeparator,
			Decimal:   cfg.CSVDecimal,
		},
		Cache: &CacheFileConfig{
			Backend:   cfg.CacheBackend,
			TTL:       cfg.CacheTTL.String(),
			RedisAddr: cfg.RedisAddr,
			RedisDB:   &redisDB,
		},
		Log: &LogFileConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		},
		OutputDir: cfg.OutputDir,
	}
}
