// SPDX-License-Identifier: EUPL-1.2

package mockengine

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrors renders the engine's error document: {"errors": [...]}.
func writeErrors(w http.ResponseWriter, status int, errs ...string) {
	writeJSON(w, status, map[string][]string{"errors": errs})
}

func scenarioNotFound(w http.ResponseWriter) {
	writeErrors(w, http.StatusNotFound, "Scenario not found")
}

// scenarioID parses the {scenarioID} route parameter.
func scenarioID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "scenarioID"))
	return id, err == nil
}

// grantFor resolves the request's bearer token, if any.
func (e *Engine) grantFor(r *http.Request) *grant {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tokens[token]
}

// authorize enforces a scope on the request. An empty scope accepts any
// valid token. It writes the 401/403 response itself and reports whether
// the request may proceed.
func (e *Engine) authorize(w http.ResponseWriter, r *http.Request, scope string) (*grant, bool) {
	g := e.grantFor(r)
	if g == nil {
		writeErrors(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	if scope != "" && !g.hasScope(scope) {
		writeErrors(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return g, true
}

// intish coerces the number-or-string values the engine accepts for ids.
func intish(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// pageParams parses the page/limit query parameters with the engine's
// defaults of page 1 and 25 records per page.
func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 25
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
