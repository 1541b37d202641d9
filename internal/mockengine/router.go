// SPDX-License-Identifier: EUPL-1.2

package mockengine

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (e *Engine) buildRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(e.recoverer)
	if opts.TracingService != "" {
		r.Use(tracing(opts.TracingService))
	}
	r.Use(metricsMiddleware)
	if opts.RateLimit > 0 {
		window := opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(rateLimiter(opts.RateLimit, window))
	}
	r.Use(e.injectFaults)

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", e.handleListScenarios)
		r.Post("/", e.handleCreateScenario)

		r.Route("/{scenarioID}", func(r chi.Router) {
			r.Get("/", e.handleGetScenario)
			r.Put("/", e.handleUpdateScenario)
			r.Delete("/", e.handleDeleteScenario)
			r.Post("/interpolate", e.handleInterpolate)

			r.Get("/inputs", e.handleInputs)
			r.Get("/inputs/{inputKey}", e.handleInput)

			r.Get("/user_sortables", e.handleUserSortables)
			r.Get("/forecast_storage_order", e.handleGetOrder(orderForecastStorage))
			r.Put("/forecast_storage_order", e.handleSetOrder(orderForecastStorage))
			r.Get("/heat_network_order", e.handleGetOrder(orderHeatNetwork))
			r.Put("/heat_network_order", e.handleSetOrder(orderHeatNetwork))

			r.Get("/curves/{kind}", e.handleCurve)
			r.Get("/application_demands", e.handleExportTable("application_demands"))
			r.Get("/energy_flow", e.handleExportTable("energy_flow"))
			r.Get("/production_parameters", e.handleExportTable("production_parameters"))
			r.Get("/sankey", e.handleExportTable("sankey"))
			r.Get("/storage_parameters", e.handleExportTable("storage_parameters"))

			r.Get("/custom_curves", e.handleCustomCurveIndex)
			r.Get("/custom_curves/*", e.handleCustomCurveDownload)
			r.Put("/custom_curves/*", e.handleCustomCurveUpload)
			r.Delete("/custom_curves/*", e.handleCustomCurveDelete)

			r.Get("/merit", e.handleMerit)
		})
	})

	r.Route("/saved_scenarios", func(r chi.Router) {
		r.Get("/", e.handleListSavedScenarios)
		r.Post("/", e.handleCreateSavedScenario)
		r.Get("/{savedID}", e.handleGetSavedScenario)
		r.Post("/{savedID}", e.handleUpdateSavedScenario)
		r.Delete("/{savedID}", e.handleDeleteSavedScenario)
	})

	r.Get("/oauth/token/info", e.handleTokenInfo)
	r.Get("/oauth/userinfo", e.handleUserInfo)
	r.Get("/transition_paths", e.handleTransitionPaths)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func rateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			writeErrors(w, http.StatusTooManyRequests, "Throttled")
		}),
	)
}
