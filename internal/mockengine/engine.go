// SPDX-License-Identifier: EUPL-1.2

// Package mockengine provides a configurable in-memory ETEngine for tests
// and offline development. It mimics the v3 wire formats closely enough to
// drive the etm client end to end: scenario CRUD, inputs with autobalancing
// share groups, gqueries, hourly and custom curves, merit order details,
// saved scenarios and the oauth endpoints. Failures and delays can be
// injected per path to exercise retry behaviour.
package mockengine

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quintel/goetm/models"
)

// Options configures the mock engine. The zero value serves every endpoint
// unthrottled, untraced and silent.
type Options struct {
	// RateLimit caps requests per client IP within RateWindow. Zero
	// disables throttling. RateWindow defaults to one minute.
	RateLimit  int
	RateWindow time.Duration

	// TracingService names the server spans. Empty leaves the tracing
	// middleware off.
	TracingService string

	Logger zerolog.Logger
}

// Engine holds the in-memory state behind the HTTP surface.
type Engine struct {
	mu sync.RWMutex

	scenarios map[int]*scenarioState
	saved     map[int]*models.SavedScenario
	tokens    map[string]*grant

	inputs           map[string]inputDefinition
	originalDefaults map[string]any
	gqueries         map[string]gqueryDefinition
	curveCatalog     []curveDefinition
	areas            map[string]bool

	nextScenarioID int
	nextSavedID    int

	failures map[string]int
	delays   map[string]time.Duration

	router http.Handler
	logger zerolog.Logger
}

// scenarioState is one scenario's mutable state.
type scenarioState struct {
	doc             models.Scenario
	userValues      map[string]any
	balancedValues  map[string]any
	forecastStorage []string
	heatNetwork     map[string][]string
	customCurves    map[string]*attachedCurve
}

type attachedCurve struct {
	name     string
	values   []float64
	attached time.Time
}

type inputDefinition struct {
	unit       string
	def        any
	min        *float64
	max        *float64
	step       *float64
	shareGroup string
	permitted  []string
	disabled   bool
}

type gqueryDefinition struct {
	unit    string
	present float64
	future  float64
}

type curveDefinition struct {
	key       string
	typ       string
	overrides []string
	internal  bool
}

type grant struct {
	ownerID   int
	name      string
	email     string
	scopes    []string
	createdAt time.Time
}

func (g *grant) hasScope(scope string) bool {
	for _, s := range g.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// NewEngine creates an engine pre-seeded with SetDefaultData.
func NewEngine(opts Options) *Engine {
	e := &Engine{logger: opts.Logger}
	e.Reset()
	e.router = e.buildRouter(opts)
	return e
}

// Router returns the engine's HTTP surface.
func (e *Engine) Router() http.Handler { return e.router }

// Reset discards all state and reloads the default data.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scenarios = make(map[int]*scenarioState)
	e.saved = make(map[int]*models.SavedScenario)
	e.tokens = make(map[string]*grant)
	e.failures = make(map[string]int)
	e.delays = make(map[string]time.Duration)
	e.nextScenarioID = 700000
	e.nextSavedID = 2

	e.setDefaultData()
}

// setDefaultData seeds a realistic nl2019 scenario, an input catalog with a
// balanced share group, a handful of gqueries, the custom curve catalog and
// one fully-scoped access token. Callers must hold the lock.
func (e *Engine) setDefaultData() {
	e.areas = map[string]bool{
		"nl2019":    true,
		"nl2015":    true,
		"de2019":    true,
		"gb2019":    true,
		"eu27_2019": true,
	}

	f := func(v float64) *float64 { return &v }
	e.inputs = map[string]inputDefinition{
		"investment_costs_combustion": {
			unit: "%", def: 0.0, min: f(-100), max: f(300), step: f(1),
		},
		"settings_enable_merit_order": {
			unit: "bool", def: 1.0,
		},
		"electricity_solar_share": {
			unit: "%", def: 40.0, min: f(0), max: f(100), step: f(0.1),
			shareGroup: "electricity_supply",
		},
		"electricity_wind_share": {
			unit: "%", def: 60.0, min: f(0), max: f(100), step: f(0.1),
			shareGroup: "electricity_supply",
		},
		"settings_weather_curve_set": {
			unit: "enum", def: "default",
			permitted: []string{"default", "1987", "extreme_cold"},
		},
		"external_coupling_industry_demand": {
			unit: "%", def: 0.0, min: f(0), max: f(100), disabled: true,
		},
	}
	e.originalDefaults = map[string]any{
		"electricity_solar_share": 35.0,
		"electricity_wind_share":  65.0,
	}

	e.gqueries = map[string]gqueryDefinition{
		"dashboard_co2_emissions_versus_start_year": {unit: "%", present: 0, future: -48.6},
		"dashboard_total_costs":                     {unit: "euro", present: 38.2e9, future: 41.7e9},
		"dashboard_renewability":                    {unit: "%", present: 9.2, future: 46.1},
	}

	e.curveCatalog = []curveDefinition{
		{key: "interconnector_1_price", typ: "price",
			overrides: []string{"electricity_interconnector_1_marginal_costs"}},
		{key: "weather/solar_pv_profile_1", typ: "profile"},
		{key: "weather/wind_inland_baseline", typ: "profile"},
		{key: "weather/air_temperature", typ: "profile", internal: true},
	}

	created := time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC)
	e.scenarios[648696] = &scenarioState{
		doc: models.Scenario{
			ID:        648696,
			AreaCode:  "nl2019",
			StartYear: 2019,
			EndYear:   2050,
			Source:    "ETM",
			CreatedAt: &created,
			UpdatedAt: &created,
		},
		userValues:      map[string]any{},
		balancedValues:  map[string]any{},
		forecastStorage: defaultForecastStorageOrder(),
		heatNetwork:     defaultHeatNetworkOrders(),
		customCurves: map[string]*attachedCurve{
			"interconnector_1_price":     seededCurve("price 2019", 11),
			"weather/solar_pv_profile_1": seededCurve("knmi solar baseline", 5),
		},
	}

	saved := &models.SavedScenario{
		ID:         1,
		ScenarioID: 648696,
		Title:      "National scenario 2050",
		AreaCode:   "nl2019",
		EndYear:    2050,
		CreatedAt:  &created,
		UpdatedAt:  &created,
	}
	e.saved[1] = saved

	e.tokens["mock-token"] = &grant{
		ownerID:   1,
		name:      "Mock User",
		email:     "mock@example.org",
		scopes:    []string{"public", "openid", "scenarios:read", "scenarios:write", "scenarios:delete"},
		createdAt: created,
	}
}

func defaultForecastStorageOrder() []string {
	return []string{"household_batteries", "ev_batteries", "large_scale_batteries", "opac"}
}

func defaultHeatNetworkOrders() map[string][]string {
	return map[string][]string{
		"lt": {
			"energy_heat_solar_thermal",
			"energy_heat_heatpump_water_water_electricity",
			"energy_heat_backup_burner_network_gas",
		},
		"mt": {
			"energy_heat_burner_wood_pellets",
			"energy_heat_burner_network_gas",
			"energy_heat_backup_burner_network_gas",
		},
		"ht": {
			"energy_heat_burner_coal",
			"energy_heat_burner_network_gas",
			"energy_heat_backup_burner_network_gas",
		},
	}
}

// seededCurve builds a deterministic 8760-value hourly profile.
func seededCurve(name string, seed int) *attachedCurve {
	return &attachedCurve{
		name:     name,
		values:   syntheticSeries(seed),
		attached: time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC),
	}
}

// AddScenario registers a scenario and returns its id. A zero id is
// replaced by the next free one.
func (e *Engine) AddScenario(doc models.Scenario) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addScenarioLocked(doc)
}

func (e *Engine) addScenarioLocked(doc models.Scenario) int {
	if doc.ID == 0 {
		doc.ID = e.nextScenarioID
		e.nextScenarioID++
	}
	if doc.CreatedAt == nil {
		now := time.Now().UTC()
		doc.CreatedAt = &now
		doc.UpdatedAt = &now
	}
	e.scenarios[doc.ID] = &scenarioState{
		doc:             doc,
		userValues:      map[string]any{},
		balancedValues:  map[string]any{},
		forecastStorage: defaultForecastStorageOrder(),
		heatNetwork:     defaultHeatNetworkOrders(),
		customCurves:    map[string]*attachedCurve{},
	}
	return doc.ID
}

// Scenario returns a copy of a stored scenario document, including its
// current user values.
func (e *Engine) Scenario(id int) (models.Scenario, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.scenarios[id]
	if !ok {
		return models.Scenario{}, false
	}
	return s.render(), true
}

// AddToken registers an access token with the given scopes.
func (e *Engine) AddToken(token string, ownerID int, scopes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens[token] = &grant{
		ownerID:   ownerID,
		name:      "Mock User",
		email:     "mock@example.org",
		scopes:    scopes,
		createdAt: time.Now().UTC(),
	}
}

// SetFailures makes the next count requests for an exact path fail with a
// 500 before the endpoint recovers.
func (e *Engine) SetFailures(path string, count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[path] = count
}

// SetDelay adds an artificial delay before a path is handled.
func (e *Engine) SetDelay(path string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delays[path] = d
}

// render produces the wire document for a scenario, attaching the current
// user and balanced values.
func (s *scenarioState) render() models.Scenario {
	doc := s.doc
	if len(s.userValues) > 0 {
		doc.UserValues = make(map[string]any, len(s.userValues))
		for k, v := range s.userValues {
			doc.UserValues[k] = v
		}
	}
	if len(s.balancedValues) > 0 {
		doc.BalancedValues = make(map[string]any, len(s.balancedValues))
		for k, v := range s.balancedValues {
			doc.BalancedValues[k] = v
		}
	}
	return doc
}

// Server couples an Engine with a running httptest server.
type Server struct {
	*httptest.Server
	*Engine
}

// NewServer starts a mock engine on an ephemeral port. The caller owns the
// returned server and must Close it.
func NewServer(opts Options) *Server {
	engine := NewEngine(opts)
	return &Server{
		Server: httptest.NewServer(engine.Router()),
		Engine: engine,
	}
}
