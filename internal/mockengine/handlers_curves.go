// SPDX-License-Identifier: EUPL-1.2

package mockengine

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quintel/goetm/models"
)

const hoursPerYear = 8760

// curveColumns lists the value columns served per hourly curve kind. Every
// document gets a leading Time column.
var curveColumns = map[string][]string{
	"merit_order": {
		"energy_power_supercritical_coal.output (MW)",
		"energy_power_combined_cycle_network_gas.output (MW)",
		"energy_power_solar_pv_solar_radiation.output (MW)",
	},
	"electricity_price": {
		"Price (Euros)",
	},
	"heat_network": {
		"energy_heat_burner_network_gas.output (MW)",
		"energy_heat_heatpump_water_water_electricity.output (MW)",
	},
	"household_heat": {
		"households_space_heater_combined_network_gas.output (MW)",
		"households_space_heater_heatpump_air_water_electricity.output (MW)",
	},
	"hydrogen": {
		"energy_hydrogen_steam_methane_reformer.output (MW)",
		"energy_hydrogen_flexibility_p2g_electricity.output (MW)",
	},
	"network_gas": {
		"energy_chp_combined_cycle_network_gas.input (MW)",
		"households_space_heater_combined_network_gas.input (MW)",
	},
}

// curveValue is the deterministic synthetic series behind every generated
// document.
func curveValue(kind string, col, hour int) float64 {
	seed := len(kind) + col*13 + 3
	return float64((hour*seed+seed)%240) / 4
}

func (e *Engine) handleCurve(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	kind := chi.URLParam(r, "kind")

	columns, known := curveColumns[kind]
	if !known {
		writeErrors(w, http.StatusNotFound, fmt.Sprintf("No such curve: %s", kind))
		return
	}

	e.mu.RLock()
	s, found := e.scenarios[id]
	enabled := found && e.meritOrderEnabled(s)
	var endYear int
	if found {
		endYear = s.doc.EndYear
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	if !enabled {
		writeErrors(w, http.StatusUnprocessableEntity, "Merit order is disabled for this scenario")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	_ = cw.Write(append([]string{"Time"}, columns...))

	base := time.Date(endYear, 1, 1, 0, 0, 0, 0, time.UTC)
	record := make([]string, len(columns)+1)
	for hour := 0; hour < hoursPerYear; hour++ {
		record[0] = base.Add(time.Duration(hour) * time.Hour).Format("2006-01-02 15:04")
		for col := range columns {
			record[col+1] = strconv.FormatFloat(curveValue(kind, col, hour), 'f', -1, 64)
		}
		_ = cw.Write(record)
	}
	cw.Flush()
}

// meritOrderEnabled reads the toggle input, falling back to its default.
// Callers must hold the lock.
func (e *Engine) meritOrderEnabled(s *scenarioState) bool {
	value := e.inputs["settings_enable_merit_order"].def
	if v, ok := s.userValues["settings_enable_merit_order"]; ok {
		value = v
	}
	n, ok := value.(float64)
	return ok && n == 1
}

// exportTables holds small but plausibly-shaped CSV documents per table.
var exportTables = map[string]string{
	"application_demands": "key,final_demand_in_pj,primary_demand_in_pj\n" +
		"households_space_heating,112.4,136.2\n" +
		"households_hot_water,41.8,50.3\n" +
		"industry_useful_demand_heat,266.1,301.9\n",
	"energy_flow": "key,electricity,network_gas,hydrogen\n" +
		"energy_power_combined_cycle_network_gas,54.2,-103.5,0\n" +
		"energy_power_solar_pv_solar_radiation,38.6,0,0\n" +
		"energy_hydrogen_steam_methane_reformer,0,-22.4,18.9\n",
	"production_parameters": "key,number_of_units,electricity_output_capacity,full_load_hours\n" +
		"energy_power_supercritical_coal,1,760,5590\n" +
		"energy_power_combined_cycle_network_gas,3,420,4100\n" +
		"energy_power_wind_turbine_inland,2150,3,2460\n",
	"sankey": "group,category,carrier,value\n" +
		"primary_demand,coal,coal,96.4\n" +
		"primary_demand,gas,network_gas,401.2\n" +
		"final_demand,households,electricity,83.7\n",
	"storage_parameters": "group,carrier,key,input_capacity,output_capacity,volume\n" +
		"storage,electricity,energy_flexibility_mv_batteries_electricity,120,120,480\n" +
		"storage,electricity,transport_car_flexibility_p2p_electricity,310,310,930\n",
}

func (e *Engine) handleExportTable(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := scenarioID(r)
		if !ok {
			scenarioNotFound(w)
			return
		}

		e.mu.RLock()
		_, found := e.scenarios[id]
		e.mu.RUnlock()
		if !found {
			scenarioNotFound(w)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(exportTables[table]))
	}
}

func boolParam(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}

func (e *Engine) handleCustomCurveIndex(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	withUnattached := boolParam(r, "include_unattached")
	withInternal := boolParam(r, "include_internal")

	e.mu.RLock()
	s, found := e.scenarios[id]
	var records []models.CustomCurveInfo
	if found {
		for _, def := range e.curveCatalog {
			if def.internal && !withInternal {
				continue
			}
			curve, attached := s.customCurves[def.key]
			if !attached && !withUnattached {
				continue
			}
			records = append(records, renderCurveInfo(def, curve))
		}
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func renderCurveInfo(def curveDefinition, curve *attachedCurve) models.CustomCurveInfo {
	info := models.CustomCurveInfo{
		Key:       def.key,
		Type:      def.typ,
		Overrides: def.overrides,
		Internal:  def.internal,
	}
	if curve != nil {
		info.Attached = true
		info.Name = curve.name
		date := curve.attached
		info.Date = &date
		info.Stats = curveStats(curve.values)
	}
	return info
}

func curveStats(values []float64) map[string]float64 {
	if len(values) == 0 {
		return nil
	}
	minV, maxV, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	return map[string]float64{
		"min":  minV,
		"max":  maxV,
		"mean": sum / float64(len(values)),
	}
}

func (e *Engine) handleCustomCurveDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	key := chi.URLParam(r, "*")

	e.mu.RLock()
	s, found := e.scenarios[id]
	var curve *attachedCurve
	if found {
		curve = s.customCurves[key]
	}
	e.mu.RUnlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	if curve == nil {
		writeErrors(w, http.StatusNotFound, "Curve not attached")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	bw := bufio.NewWriter(w)
	for _, v := range curve.values {
		_, _ = bw.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		_ = bw.WriteByte('\n')
	}
	_ = bw.Flush()
}

func (e *Engine) handleCustomCurveUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	key := chi.URLParam(r, "*")

	def, known := e.findCurveDefinition(key)
	if !known {
		writeErrors(w, http.StatusNotFound, fmt.Sprintf("No such curve: %s", key))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Curve file is missing")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Curve file is missing")
		return
	}
	defer func() { _ = file.Close() }()

	var values []float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			writeErrors(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("Curve contains a non-numeric value: %s", line))
			return
		}
		values = append(values, v)
	}
	if len(values) != hoursPerYear {
		writeErrors(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Curve must contain %d numeric values, got %d", hoursPerYear, len(values)))
		return
	}

	curve := &attachedCurve{
		name:     strings.TrimSuffix(header.Filename, ".csv"),
		values:   values,
		attached: time.Now().UTC(),
	}

	e.mu.Lock()
	s, found := e.scenarios[id]
	if found {
		s.customCurves[key] = curve
	}
	e.mu.Unlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, renderCurveInfo(def, curve))
}

func (e *Engine) handleCustomCurveDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	key := chi.URLParam(r, "*")

	e.mu.Lock()
	s, found := e.scenarios[id]
	attached := false
	if found {
		_, attached = s.customCurves[key]
		delete(s.customCurves, key)
	}
	e.mu.Unlock()

	if !found {
		scenarioNotFound(w)
		return
	}
	if !attached {
		writeErrors(w, http.StatusNotFound, "Curve not attached")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) findCurveDefinition(key string) (curveDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, def := range e.curveCatalog {
		if def.key == key {
			return def, true
		}
	}
	return curveDefinition{}, false
}

func (e *Engine) handleMerit(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(r)
	if !ok {
		scenarioNotFound(w)
		return
	}
	withCurves := boolParam(r, "include_curves")

	e.mu.RLock()
	_, found := e.scenarios[id]
	e.mu.RUnlock()
	if !found {
		scenarioNotFound(w)
		return
	}

	participants := []map[string]any{
		{
			"key":                      "energy_power_supercritical_coal",
			"type":                     "dispatchable",
			"marginal_costs":           32.0,
			"availability":             0.89,
			"number_of_units":          1.0,
			"output_capacity_per_unit": 760.0,
		},
		{
			"key":                      "energy_power_combined_cycle_network_gas",
			"type":                     "dispatchable",
			"marginal_costs":           24.8,
			"availability":             0.97,
			"number_of_units":          3.0,
			"output_capacity_per_unit": 420.0,
		},
		{
			"key":                      "energy_power_nuclear_gen3",
			"type":                     "dispatchable",
			"marginal_costs":           nil,
			"availability":             0.9,
			"number_of_units":          0.0,
			"output_capacity_per_unit": 1600.0,
		},
		{
			"key":   "energy_power_solar_pv_solar_radiation",
			"type":  "volatile",
			"curve": "weather/solar_pv_profile_1",
		},
		{
			"key":   "households_space_heater_heatpump_air_water_electricity",
			"type":  "total_consumption",
			"curve": "total_demand",
		},
	}

	doc := map[string]any{"participants": participants}
	if withCurves {
		doc["curves"] = map[string][]float64{
			"total_demand":               syntheticSeries(17),
			"weather/solar_pv_profile_1": syntheticSeries(5),
		}
	}
	writeJSON(w, http.StatusOK, doc)
}

func syntheticSeries(seed int) []float64 {
	values := make([]float64, hoursPerYear)
	for i := range values {
		values[i] = float64((i*seed+seed*7)%200) / 4
	}
	return values
}
