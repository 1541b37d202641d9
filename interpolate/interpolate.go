// SPDX-License-Identifier: EUPL-1.2

// Package interpolate derives input values for years between existing
// scenarios of the same area. Continuous sliders are interpolated linearly
// over the years, discrete settings must agree between the scenarios and
// are carried backward from the nearest later year.
//
// The heat network order is not part of the result.
package interpolate

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/quintel/goetm/models"
)

// ScenarioInputs couples one scenario's header fields with its input
// collection, the unit every scenario contributes to an interpolation.
type ScenarioInputs struct {
	AreaCode string
	EndYear  int
	Inputs   *models.InputCollection
}

// Row holds one input's values across all years of a Result. A nil value
// means the input has no value for that year.
type Row struct {
	Key    string
	Unit   string
	Values []any
}

// Result is the interpolated input table: one row per input, one column per
// scenario or target year.
type Result struct {
	Years []int
	Rows  []Row
}

// Row returns the row for an input key.
func (r *Result) Row(key string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return Row{}, false
}

// ValuesFor collects the values of one year keyed by input, ready to be
// pushed to a scenario as user values. Inputs without a value are left out.
func (r *Result) ValuesFor(year int) map[string]any {
	column := -1
	for i, y := range r.Years {
		if y == year {
			column = i
			break
		}
	}
	if column == -1 {
		return nil
	}

	values := make(map[string]any)
	for _, row := range r.Rows {
		if v := row.Values[column]; v != nil {
			values[row.Key] = v
		}
	}
	return values
}

// Frame renders the result as a table with an input and unit column
// followed by one column per year.
func (r *Result) Frame() *models.Frame {
	columns := make([]string, 0, len(r.Years)+2)
	columns = append(columns, "input", "unit")
	for _, year := range r.Years {
		columns = append(columns, strconv.Itoa(year))
	}

	frame := models.NewFrame(columns...)
	for _, row := range r.Rows {
		record := make([]string, 0, len(columns))
		record = append(record, row.Key, row.Unit)
		for _, v := range row.Values {
			record = append(record, formatValue(v))
		}
		_ = frame.Append(record...)
	}
	return frame
}

// Series interpolates the inputs of the passed scenarios for the target
// years. The scenarios must share one area code and carry distinct end
// years; every target must lie strictly between the lowest and highest end
// year. The first scenario (by end year) decides which inputs take part:
// disabled inputs are skipped.
func Series(scenarios []ScenarioInputs, targets []int) (*Result, error) {
	if len(scenarios) < 2 {
		return nil, fmt.Errorf("interpolate: need at least two scenarios, got %d", len(scenarios))
	}

	sorted := make([]ScenarioInputs, len(scenarios))
	copy(sorted, scenarios)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EndYear < sorted[j].EndYear })

	codes := make([]string, len(sorted))
	for i, s := range sorted {
		codes[i] = s.AreaCode
	}
	if !allEqual(codes) {
		return nil, fmt.Errorf("interpolate: different area codes in passed scenarios: %v", codes)
	}

	years := make([]int, len(sorted))
	seen := make(map[int]bool, len(sorted))
	for i, s := range sorted {
		if seen[s.EndYear] {
			return nil, fmt.Errorf("interpolate: duplicate end years in passed scenarios: %v", endYears(sorted))
		}
		seen[s.EndYear] = true
		years[i] = s.EndYear
	}

	minYear, maxYear := years[0], years[len(years)-1]
	var outOfBounds []int
	for _, t := range targets {
		if t <= minYear || t >= maxYear {
			outOfBounds = append(outOfBounds, t)
		}
	}
	if len(outOfBounds) > 0 {
		return nil, fmt.Errorf("interpolate: targets out of bounds: %d < %v < %d",
			minYear, outOfBounds, maxYear)
	}

	// Column years: scenario years plus targets, deduplicated.
	for _, t := range targets {
		if !seen[t] {
			seen[t] = true
			years = append(years, t)
		}
	}
	sort.Ints(years)

	scenarioYear := make(map[int]ScenarioInputs, len(sorted))
	for _, s := range sorted {
		scenarioYear[s.EndYear] = s
	}

	result := &Result{Years: years}
	var inconsistent []string

	catalogue := sorted[0].Inputs
	if catalogue == nil {
		return nil, fmt.Errorf("interpolate: scenario for %d has no inputs", sorted[0].EndYear)
	}

	for _, in := range catalogue.All() {
		if in.Disabled {
			continue
		}

		row := Row{Key: in.Key, Unit: in.Unit, Values: make([]any, len(years))}
		for i, year := range years {
			s, ok := scenarioYear[year]
			if !ok || s.Inputs == nil {
				continue
			}
			if other, ok := s.Inputs.Get(in.Key); ok {
				row.Values[i] = other.Value()
			}
		}

		if discrete(in) {
			if !agreeing(row.Values) {
				inconsistent = append(inconsistent, in.Key)
				continue
			}
			backwardFill(row.Values)
		} else {
			fillLinear(years, row.Values)
		}
		result.Rows = append(result.Rows, row)
	}

	if len(inconsistent) > 0 {
		sort.Strings(inconsistent)
		return nil, fmt.Errorf("interpolate: inconsistent scenario settings for inputs: %v", inconsistent)
	}
	return result, nil
}

// discrete reports whether an input must not be interpolated. The engine's
// "x" unit behaves as a discrete setting.
func discrete(in *models.Input) bool {
	return in.IsBool() || in.IsEnum() || in.Unit == "x"
}

// agreeing reports whether all set values are equal.
func agreeing(values []any) bool {
	var first any
	for _, v := range values {
		if v == nil {
			continue
		}
		if first == nil {
			first = v
			continue
		}
		if v != first {
			return false
		}
	}
	return true
}

// backwardFill replaces each missing value with the nearest later one.
// Values after the last set year stay missing.
func backwardFill(values []any) {
	for i := len(values) - 2; i >= 0; i-- {
		if values[i] == nil {
			values[i] = values[i+1]
		}
	}
}

// fillLinear interpolates missing values linearly over the years. Values
// after the last known year carry that year's value; values before the
// first known year stay missing.
func fillLinear(years []int, values []any) {
	type point struct {
		index int
		value float64
	}

	known := make([]point, 0, len(values))
	for i, v := range values {
		if f, ok := floatValue(v); ok {
			values[i] = f
			known = append(known, point{index: i, value: f})
		} else {
			values[i] = nil
		}
	}
	if len(known) == 0 {
		return
	}

	for i := range values {
		if values[i] != nil {
			continue
		}

		var before, after *point
		for k := range known {
			switch {
			case known[k].index < i:
				before = &known[k]
			case known[k].index > i && after == nil:
				after = &known[k]
			}
		}

		switch {
		case before != nil && after != nil:
			span := float64(years[after.index] - years[before.index])
			offset := float64(years[i] - years[before.index])
			values[i] = before.value + (after.value-before.value)*offset/span
		case before != nil:
			values[i] = before.value
		}
	}
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func allEqual(values []string) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func endYears(scenarios []ScenarioInputs) []int {
	years := make([]int, len(scenarios))
	for i, s := range scenarios {
		years[i] = s.EndYear
	}
	return years
}

func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
