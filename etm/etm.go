// SPDX-License-Identifier: EUPL-1.2

// Package etm is a client for the Energy Transition Model's ETEngine API.
// It speaks the v3 JSON and CSV endpoints: scenario lifecycle, inputs and
// user values, gqueries, orderables, carrier curves, custom curve uploads
// and saved scenarios.
//
// A zero-value Options works against the public engine. Authenticated calls
// need a personal access token, either set explicitly or taken from the
// ETM_API_TOKEN environment variable (ETM_ACCESS_TOKEN is honoured for
// older setups).
package etm

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quintel/goetm/internal/log"
	"github.com/quintel/goetm/models"
)

// ScenarioCache stores scenario headers and input collections between
// calls. Implementations must be safe for concurrent use; a miss is
// reported by the second return value, never by an error.
type ScenarioCache interface {
	Scenario(scenarioID int) (*models.Scenario, bool)
	SetScenario(scenario *models.Scenario)
	Inputs(scenarioID int, originalDefaults bool) (*models.InputCollection, bool)
	SetInputs(scenarioID int, originalDefaults bool, coll *models.InputCollection)
	Invalidate(scenarioID int)
}

// Version is reported in the User-Agent of every request.
const Version = "1.0.0"

// DefaultEngineURL is the public production engine.
const DefaultEngineURL = "https://engine.energytransitionmodel.com/api/v3"

// defaultModelURL is the GUI that belongs to the default engine. Scenario
// links only resolve there.
const defaultModelURL = "https://energytransitionmodel.com"

const (
	defaultTimeout        = 30 * time.Second
	// defaultRetries yields five attempts in total, matching how often the
	// engine is retried on connection failures.
	defaultRetries        = 4
	defaultBackoff        = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultRateLimit      = 10
	defaultRateLimitBurst = 20
)

// Client talks to one ETEngine deployment. Methods are safe for concurrent
// use.
type Client struct {
	EngineURL  string
	ModelURL   string
	HTTPClient *http.Client

	token      string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	userAgent  string
	logger     zerolog.Logger
	cache      ScenarioCache
}

// Options configures the engine client behavior.
type Options struct {
	// Token is the personal access token. Empty means the ETM_API_TOKEN and
	// ETM_ACCESS_TOKEN environment variables are consulted; anonymous access
	// is used when neither is set.
	Token string

	// ModelURL overrides the GUI location used by ScenarioURL.
	ModelURL string

	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	MaxRetries            int
	Backoff               time.Duration
	MaxBackoff            time.Duration
	UserAgent             string
	RateLimit             rate.Limit
	RateLimitBurst        int

	// HTTPClient replaces the tuned default transport when set.
	HTTPClient *http.Client

	// Cache, when set, serves scenario headers and input collections from
	// memory and is invalidated on every scenario mutation.
	Cache ScenarioCache

	Logger *zerolog.Logger
}

// New creates a client for the engine at engineURL. An empty engineURL
// selects the public production engine.
func New(engineURL string, opts Options) *Client {
	if strings.TrimSpace(engineURL) == "" {
		engineURL = DefaultEngineURL
	}
	trimmed := strings.TrimRight(strings.TrimSpace(engineURL), "/")

	nopts := normalizeOptions(opts)

	httpClient := nopts.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: nopts.ResponseHeaderTimeout,
			TLSHandshakeTimeout:   5 * time.Second,
		}
		httpClient = &http.Client{
			Timeout:   nopts.Timeout,
			Transport: transport,
		}
	}

	var logger zerolog.Logger
	if nopts.Logger != nil {
		logger = *nopts.Logger
	} else {
		logger = log.WithComponent("etm.client")
	}

	modelURL := strings.TrimRight(strings.TrimSpace(nopts.ModelURL), "/")
	if modelURL == "" && trimmed == DefaultEngineURL {
		modelURL = defaultModelURL
	}

	return &Client{
		EngineURL:  trimmed,
		ModelURL:   modelURL,
		HTTPClient: httpClient,
		token:      nopts.Token,
		limiter:    rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
		maxRetries: nopts.MaxRetries,
		backoff:    nopts.Backoff,
		maxBackoff: nopts.MaxBackoff,
		userAgent:  nopts.UserAgent,
		logger:     logger,
		cache:      nopts.Cache,
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Token == "" {
		opts.Token = tokenFromEnv()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = opts.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "goetm/" + Version
	}
	return opts
}

func tokenFromEnv() string {
	if token := os.Getenv("ETM_API_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("ETM_ACCESS_TOKEN")
}

// invalidate drops the cached documents of a scenario after a mutation.
func (c *Client) invalidate(scenarioID int) {
	if c.cache != nil {
		c.cache.Invalidate(scenarioID)
	}
}

// Authenticated reports whether the client sends a bearer token.
func (c *Client) Authenticated() bool { return c.token != "" }

// ScenarioURL returns the GUI link of a scenario, or an error when no model
// URL is known for the connected engine.
func (c *Client) ScenarioURL(scenarioID int) (string, error) {
	if c.ModelURL == "" {
		return "", fmt.Errorf("etm: no model url configured for engine %s", c.EngineURL)
	}
	return fmt.Sprintf("%s/scenarios/%d", c.ModelURL, scenarioID), nil
}

// endpoint joins the engine base URL with a relative path and query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.EngineURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
