// SPDX-License-Identifier: EUPL-1.2

package mockengine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quintel/goetm/models"
)

const (
	orderForecastStorage = "forecast_storage_order"
	orderHeatNetwork     = "heat_network_order"
)

func (e *Engine) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:read"); !ok {
		return
	}

	e.mu.RLock()
	docs := make([]models.Scenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		docs = append(docs, s.render())
	}
	e.mu.RUnlock()

	// Most recently created first.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID > docs[j].ID })

	page, limit := pageParams(r)
	total := len(docs)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": docs[start:end],
		"meta": map[string]int{"total": total},
	})
}

func (e *Engine) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scenario map[string]any `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Scenario == nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Scenario can't be blank")
		return
	}

	if raw, ok := body.Scenario["scenario_id"]; ok {
		e.copyScenario(w, r, raw)
		return
	}

	area, _ := body.Scenario["area_code"].(string)
	endYear, hasYear := intish(body.Scenario["end_year"])

	var errs []string
	e.mu.RLock()
	knownArea := e.areas[area]
	e.mu.RUnlock()
	if !knownArea {
		errs = append(errs, "Area code is unknown or not supported")
	}
	if !hasYear || endYear == 0 {
		errs = append(errs, "End year can't be blank")
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}

	doc := models.Scenario{
		AreaCode:  area,
		StartYear: startYearFor(area),
		EndYear:   endYear,
		Source:    "API",
	}
	if v, ok := body.Scenario["keep_compatible"].(bool); ok {
		doc.KeepCompatible = v
	}
	if v, ok := body.Scenario["private"].(bool); ok {
		doc.Private = v
	}
	if v, ok := body.Scenario["source"].(string); ok && v != "" {
		doc.Source = v
	}
	if v, ok := body.Scenario["metadata"].(map[string]any); ok {
		doc.Metadata = v
	}

	e.mu.Lock()
	id := e.addScenarioLocked(doc)
	s := e.scenarios[id]
	if values, ok := body.Scenario["user_values"].(map[string]any); ok {
		if errs := e.applyUserValues(s, values); len(errs) > 0 {
			delete(e.scenarios, id)
			e.mu.Unlock()
			writeErrors(w, http.StatusUnprocessableEntity, errs...)
			return
		}
	}
	rendered := s.render()
	e.mu.Unlock()

	rendered.URL = scenarioURL(r, id)
	writeJSON(w, http.StatusOK, rendered)
}

// copyScenario clones an existing scenario, including its user values,
// orders and attached custom curves.
func (e *Engine) copyScenario(w http.ResponseWriter, r *http.Request, raw any) {
	sourceID, ok := intish(raw)
	if !ok {
		writeErrors(w, http.StatusUnprocessableEntity, "Scenario id must be numeric")
		return
	}

	e.mu.Lock()
	source, found := e.scenarios[sourceID]
	if !found {
		e.mu.Unlock()
		scenarioNotFound(w)
		return
	}

	doc := source.doc
	doc.ID = 0
	doc.CreatedAt = nil
	doc.UpdatedAt = nil
	doc.Template = &sourceID
	id := e.addScenarioLocked(doc)

	clone := e.scenarios[id]
	for k, v := range source.userValues {
		clone.userValues[k] = v
	}
	for k, v := range source.balancedValues {
		clone.balancedValues[k] = v
	}
	clone.forecastStorage = append([]string(nil), source.forecastStorage...)
	for sub, order := range source.heatNetwork {
		clone.heatNetwork[sub] = append([]string(nil), order...)
	}
	for key, curve := range source.customCurves {
		clone.customCurves[key] = &attachedCurve{
			name:     curve.name,
			values:   append([]float64(nil), curve.values...),
			attached: curve.attached,
		}
	}
	rendered := clone.render()
	e.mu.Unlock()

	rendered.URL = scenarioURL(r, id)
	writeJSON(w, http.StatusOK, rendered)
}

func (e *Engine) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}

	e.mu.RLock()
	s, found := e.scenarios[id]
	var rendered models.Scenario
	if found {
		rendered = s.render()
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	rendered.URL = scenarioURL(r, id)
	writeJSON(w, http.StatusOK, rendered)
}

func (e *Engine) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}

	var body struct {
		Scenario map[string]any `json:"scenario"`
		Gqueries []string       `json:"gqueries"`
		Detailed bool           `json:"detailed"`
		Reset    bool           `json:"reset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Request body is not valid JSON")
		return
	}

	e.mu.Lock()
	s, found := e.scenarios[id]
	if !found {
		e.mu.Unlock()
		scenarioNotFound(w)
		return
	}

	if body.Reset {
		s.userValues = map[string]any{}
		s.balancedValues = map[string]any{}
	}

	if body.Scenario != nil {
		if values, ok := body.Scenario["user_values"].(map[string]any); ok {
			if errs := e.applyUserValues(s, values); len(errs) > 0 {
				e.mu.Unlock()
				writeErrors(w, http.StatusUnprocessableEntity, errs...)
				return
			}
		}
		if v, ok := body.Scenario["keep_compatible"].(bool); ok {
			s.doc.KeepCompatible = v
		}
		if v, ok := body.Scenario["private"].(bool); ok {
			s.doc.Private = v
		}
		if v, ok := body.Scenario["metadata"].(map[string]any); ok {
			s.doc.Metadata = v
		}
	}

	now := time.Now().UTC()
	s.doc.UpdatedAt = &now

	results, missing := e.resolveGqueries(body.Gqueries)
	rendered := s.render()
	e.mu.Unlock()

	if len(missing) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, missing...)
		return
	}

	rendered.URL = scenarioURL(r, id)
	envelope := map[string]any{"scenario": rendered}
	if len(results) > 0 {
		envelope["gqueries"] = results
	}
	writeJSON(w, http.StatusOK, envelope)
}

func (e *Engine) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:delete"); !ok {
		return
	}
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}

	e.mu.Lock()
	_, found := e.scenarios[id]
	delete(e.scenarios, id)
	e.mu.Unlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) handleInterpolate(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}

	var body struct {
		EndYear int `json:"end_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Request body is not valid JSON")
		return
	}

	e.mu.Lock()
	source, found := e.scenarios[id]
	if !found {
		e.mu.Unlock()
		scenarioNotFound(w)
		return
	}
	if source.doc.EndYear != 2050 {
		e.mu.Unlock()
		writeErrors(w, http.StatusUnprocessableEntity,
			"Only scenarios with an end year of 2050 can be interpolated")
		return
	}
	start := source.doc.StartYear
	if body.EndYear <= start || body.EndYear >= 2050 {
		e.mu.Unlock()
		writeErrors(w, http.StatusUnprocessableEntity,
			"End year must lie between the scenario's start year and 2050")
		return
	}

	doc := source.doc
	doc.ID = 0
	doc.CreatedAt = nil
	doc.UpdatedAt = nil
	doc.EndYear = body.EndYear
	newID := e.addScenarioLocked(doc)
	target := e.scenarios[newID]

	// Float inputs move linearly from their start-year default towards the
	// 2050 value; discrete inputs carry over unchanged.
	factor := float64(body.EndYear-start) / float64(2050-start)
	for key, value := range source.userValues {
		def, known := e.inputs[key]
		v, isNumber := value.(float64)
		if !known || !isNumber || def.unit == "bool" || def.unit == "enum" {
			target.userValues[key] = value
			continue
		}
		base := 0.0
		if d, ok := def.def.(float64); ok {
			base = d
		}
		target.userValues[key] = base + (v-base)*factor
	}
	rendered := target.render()
	e.mu.Unlock()

	rendered.URL = scenarioURL(r, newID)
	writeJSON(w, http.StatusOK, rendered)
}

// applyUserValues validates and stores a batch of user values. Callers must
// hold the write lock. On any error nothing is stored.
func (e *Engine) applyUserValues(s *scenarioState, values map[string]any) []string {
	var errs []string
	staged := make(map[string]any, len(values))
	cleared := make(map[string]bool)

	for key, raw := range values {
		if raw == "reset" {
			cleared[key] = true
			continue
		}
		def, ok := e.inputs[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("Input %s does not exist", key))
			continue
		}
		if def.disabled {
			errs = append(errs, fmt.Sprintf("Input %s is disabled", key))
			continue
		}

		switch def.unit {
		case "bool":
			if n, ok := raw.(float64); ok && (n == 0 || n == 1) {
				staged[key] = n
				continue
			}
			errs = append(errs, fmt.Sprintf("Input %s must be either 0 or 1", key))
		case "enum":
			v, isString := raw.(string)
			if isString && contains(def.permitted, v) {
				staged[key] = v
				continue
			}
			errs = append(errs, fmt.Sprintf("Input %s must be one of: %s",
				key, strings.Join(def.permitted, ", ")))
		default:
			n, isNumber := raw.(float64)
			if !isNumber {
				errs = append(errs, fmt.Sprintf("Input %s must be numeric", key))
				continue
			}
			if def.min != nil && n < *def.min {
				errs = append(errs, fmt.Sprintf("Input %s cannot be less than %g", key, *def.min))
				continue
			}
			if def.max != nil && n > *def.max {
				errs = append(errs, fmt.Sprintf("Input %s cannot be greater than %g", key, *def.max))
				continue
			}
			staged[key] = n
		}
	}

	if errs = append(errs, e.checkShareGroups(s, staged, cleared)...); len(errs) > 0 {
		return errs
	}

	for key := range cleared {
		delete(s.userValues, key)
	}
	for key, value := range staged {
		s.userValues[key] = value
	}
	e.rebalance(s)
	return nil
}

// checkShareGroups rejects fully-specified share groups that do not sum to
// 100. Partially-specified groups are balanced later.
func (e *Engine) checkShareGroups(s *scenarioState, staged map[string]any, cleared map[string]bool) []string {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	sizes := make(map[string]int)

	for key, def := range e.inputs {
		if def.shareGroup == "" {
			continue
		}
		sizes[def.shareGroup]++

		value, ok := staged[key]
		if !ok && !cleared[key] {
			value, ok = s.userValues[key]
		}
		if !ok {
			continue
		}
		if n, isNumber := value.(float64); isNumber {
			sums[def.shareGroup] += n
			counts[def.shareGroup]++
		}
	}

	var errs []string
	for group, count := range counts {
		if count == sizes[group] && !almostEqual(sums[group], 100) {
			errs = append(errs, fmt.Sprintf("Share group %s does not sum to 100", group))
		}
	}
	sort.Strings(errs)
	return errs
}

// rebalance fills balanced values for partially-set share groups, dividing
// the remainder over the unset members in proportion to their defaults.
func (e *Engine) rebalance(s *scenarioState) {
	s.balancedValues = map[string]any{}

	type member struct {
		key string
		def float64
	}
	setSum := make(map[string]float64)
	hasSet := make(map[string]bool)
	unset := make(map[string][]member)

	for key, def := range e.inputs {
		if def.shareGroup == "" {
			continue
		}
		if v, ok := s.userValues[key]; ok {
			if n, isNumber := v.(float64); isNumber {
				setSum[def.shareGroup] += n
				hasSet[def.shareGroup] = true
				continue
			}
		}
		base := 0.0
		if d, ok := def.def.(float64); ok {
			base = d
		}
		unset[def.shareGroup] = append(unset[def.shareGroup], member{key: key, def: base})
	}

	for group, members := range unset {
		if !hasSet[group] || len(members) == 0 {
			continue
		}
		remaining := 100 - setSum[group]
		defSum := 0.0
		for _, m := range members {
			defSum += m.def
		}
		for _, m := range members {
			share := remaining / float64(len(members))
			if defSum > 0 {
				share = remaining * m.def / defSum
			}
			s.balancedValues[m.key] = share
		}
	}
}

// resolveGqueries looks up gquery results. Callers must hold the lock.
func (e *Engine) resolveGqueries(keys []string) (map[string]models.GqueryResult, []string) {
	if len(keys) == 0 {
		return nil, nil
	}

	results := make(map[string]models.GqueryResult, len(keys))
	var missing []string
	for _, key := range keys {
		def, ok := e.gqueries[key]
		if !ok {
			missing = append(missing, fmt.Sprintf("Gquery %s does not exist", key))
			continue
		}
		results[key] = models.GqueryResult{
			Unit:    def.unit,
			Present: def.present,
			Future:  def.future,
		}
	}
	return results, missing
}

func (e *Engine) handleUserSortables(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}

	e.mu.RLock()
	s, found := e.scenarios[id]
	if !found {
		e.mu.RUnlock()
		scenarioNotFound(w)
		return
	}
	doc := map[string]any{
		orderForecastStorage: s.forecastStorage,
		orderHeatNetwork:     s.heatNetwork,
	}
	e.mu.RUnlock()

	writeJSON(w, http.StatusOK, doc)
}

func (e *Engine) handleGetOrder(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := scenarioID(r)
		if !ok {
			scenarioNotFound(w)
			return
		}

		e.mu.RLock()
		s, found := e.scenarios[id]
		var order []string
		if found {
			order = s.order(kind)
		}
		e.mu.RUnlock()

		if !found {
			scenarioNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"order": order})
	}
}

func (e *Engine) handleSetOrder(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := scenarioID(r)
		if !ok {
			scenarioNotFound(w)
			return
		}

		var body struct {
			Order []string `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Order) == 0 {
			writeErrors(w, http.StatusUnprocessableEntity, "Order can't be blank")
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		s, found := e.scenarios[id]
		if !found {
			scenarioNotFound(w)
			return
		}

		current := s.order(kind)
		for _, item := range body.Order {
			if !contains(current, item) {
				writeErrors(w, http.StatusUnprocessableEntity,
					fmt.Sprintf("Order contains unknown option: %s", item))
				return
			}
		}
		s.setOrder(kind, body.Order)
		writeJSON(w, http.StatusOK, map[string][]string{"order": body.Order})
	}
}

// order reads a standalone order. The heat network endpoint serves the
// medium temperature level.
func (s *scenarioState) order(kind string) []string {
	if kind == orderHeatNetwork {
		return s.heatNetwork["mt"]
	}
	return s.forecastStorage
}

func (s *scenarioState) setOrder(kind string, order []string) {
	if kind == orderHeatNetwork {
		s.heatNetwork["mt"] = order
		return
	}
	s.forecastStorage = order
}

func scenarioURL(r *http.Request, id int) string {
	return fmt.Sprintf("http://%s/scenarios/%d", r.Host, id)
}

func startYearFor(area string) int {
	if i := strings.LastIndexByte(area, '2'); i >= 0 && len(area[i:]) == 4 {
		var year int
		if _, err := fmt.Sscanf(area[i:], "%d", &year); err == nil {
			return year
		}
	}
	return 2019
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func almostEqual(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}

// inputDoc renders the inputs document for one scenario. Payloads do not
// carry their own key; clients take it from the document position.
func (e *Engine) inputDoc(s *scenarioState, original bool) map[string]map[string]any {
	doc := make(map[string]map[string]any, len(e.inputs))
	for key, def := range e.inputs {
		doc[key] = e.renderInput(key, def, s, original)
	}
	return doc
}

func (e *Engine) renderInput(key string, def inputDefinition, s *scenarioState, original bool) map[string]any {
	payload := map[string]any{
		"unit":    def.unit,
		"default": def.def,
	}
	if original {
		if d, ok := e.originalDefaults[key]; ok {
			payload["default"] = d
		}
	}
	if def.min != nil {
		payload["min"] = *def.min
	}
	if def.max != nil {
		payload["max"] = *def.max
	}
	if def.step != nil {
		payload["step"] = *def.step
	}
	if def.shareGroup != "" {
		payload["share_group"] = def.shareGroup
	}
	if len(def.permitted) > 0 {
		payload["permitted_values"] = def.permitted
	}
	if def.disabled {
		payload["disabled"] = true
	}
	if v, ok := s.userValues[key]; ok {
		payload["user"] = v
	}
	return payload
}

func (e *Engine) handleInputs(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	original := r.URL.Query().Get("defaults") == "original"

	e.mu.RLock()
	s, found := e.scenarios[id]
	var doc map[string]map[string]any
	if found {
		doc = e.inputDoc(s, original)
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (e *Engine) handleInput(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	key := chi.URLParam(r, "inputKey")

	e.mu.RLock()
	s, found := e.scenarios[id]
	def, known := e.inputs[key]
	var payload map[string]any
	if found && known {
		payload = e.renderInput(key, def, s, false)
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	if !known {
		writeErrors(w, http.StatusNotFound, "Input not found")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
