// SPDX-License-Identifier: EUPL-1.2

package interpolate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quintel/goetm/interpolate"
	"github.com/quintel/goetm/models"
)

func scenario(area string, year int, inputs ...*models.Input) interpolate.ScenarioInputs {
	return interpolate.ScenarioInputs{
		AreaCode: area,
		EndYear:  year,
		Inputs:   models.NewInputCollection(inputs),
	}
}

func slider(key string, value any) *models.Input {
	return &models.Input{Key: key, Unit: "%", User: value}
}

func TestSeriesMidpoint(t *testing.T) {
	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2050, slider("electricity_solar_share", 60.0)),
		scenario("nl2019", 2030, slider("electricity_solar_share", 20.0)),
	}, []int{2040})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{2030, 2040, 2050}, result.Years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}

	row, ok := result.Row("electricity_solar_share")
	if !ok {
		t.Fatal("missing row for electricity_solar_share")
	}
	if diff := cmp.Diff([]any{20.0, 40.0, 60.0}, row.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSeriesWeighsYearDistance(t *testing.T) {
	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030, slider("costs", 10.0)),
		scenario("nl2019", 2050, slider("costs", 110.0)),
	}, []int{2035, 2045})
	if err != nil {
		t.Fatal(err)
	}

	row, _ := result.Row("costs")
	if diff := cmp.Diff([]any{10.0, 35.0, 85.0, 110.0}, row.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSeriesDiscreteCarriedBackward(t *testing.T) {
	weather := func(value any) *models.Input {
		return &models.Input{Key: "settings_weather_curve_set", Unit: "enum", User: value}
	}

	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030, weather(nil)),
		scenario("nl2019", 2050, weather("extreme_cold")),
	}, []int{2040})
	if err != nil {
		t.Fatal(err)
	}

	row, _ := result.Row("settings_weather_curve_set")
	if diff := cmp.Diff([]any{"extreme_cold", "extreme_cold", "extreme_cold"}, row.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSeriesDiscreteMustAgree(t *testing.T) {
	merit := func(value float64) *models.Input {
		return &models.Input{Key: "settings_enable_merit_order", Unit: "bool", User: value}
	}

	_, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030, merit(1.0)),
		scenario("nl2019", 2050, merit(0.0)),
	}, []int{2040})
	if err == nil {
		t.Fatal("expected an error for disagreeing discrete inputs")
	}
	if !strings.Contains(err.Error(), "settings_enable_merit_order") {
		t.Errorf("error should name the offending input, got %v", err)
	}
}

func TestSeriesValidation(t *testing.T) {
	nl2030 := scenario("nl2019", 2030, slider("costs", 10.0))
	nl2050 := scenario("nl2019", 2050, slider("costs", 20.0))

	cases := []struct {
		name      string
		scenarios []interpolate.ScenarioInputs
		targets   []int
		want      string
	}{
		{
			name:      "single scenario",
			scenarios: []interpolate.ScenarioInputs{nl2050},
			targets:   []int{2040},
			want:      "at least two scenarios",
		},
		{
			name: "mixed areas",
			scenarios: []interpolate.ScenarioInputs{
				nl2030,
				scenario("de2019", 2050, slider("costs", 20.0)),
			},
			targets: []int{2040},
			want:    "different area codes",
		},
		{
			name: "duplicate end years",
			scenarios: []interpolate.ScenarioInputs{
				nl2050,
				scenario("nl2019", 2050, slider("costs", 30.0)),
			},
			targets: []int{2040},
			want:    "duplicate end years",
		},
		{
			name:      "target at the boundary",
			scenarios: []interpolate.ScenarioInputs{nl2030, nl2050},
			targets:   []int{2050},
			want:      "out of bounds",
		},
		{
			name:      "target before the range",
			scenarios: []interpolate.ScenarioInputs{nl2030, nl2050},
			targets:   []int{2025},
			want:      "out of bounds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := interpolate.Series(tc.scenarios, tc.targets)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSeriesMissingValues(t *testing.T) {
	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030,
			slider("late_only", nil),
			slider("early_only", 5.0)),
		scenario("nl2019", 2050,
			slider("late_only", 40.0),
			slider("early_only", nil)),
	}, []int{2040})
	if err != nil {
		t.Fatal(err)
	}

	// No earlier value to interpolate from: years before the first known
	// value stay empty.
	late, _ := result.Row("late_only")
	if diff := cmp.Diff([]any{nil, nil, 40.0}, late.Values); diff != "" {
		t.Errorf("late_only mismatch (-want +got):\n%s", diff)
	}

	// The last known value is carried forward.
	early, _ := result.Row("early_only")
	if diff := cmp.Diff([]any{5.0, 5.0, 5.0}, early.Values); diff != "" {
		t.Errorf("early_only mismatch (-want +got):\n%s", diff)
	}
}

func TestSeriesSkipsDisabledInputs(t *testing.T) {
	disabled := &models.Input{Key: "external_coupling", Unit: "%", User: 1.0, Disabled: true}

	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030, slider("costs", 10.0), disabled),
		scenario("nl2019", 2050, slider("costs", 20.0), disabled),
	}, []int{2040})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Row("external_coupling"); ok {
		t.Error("disabled inputs must not be interpolated")
	}
}

func TestValuesForAndFrame(t *testing.T) {
	result, err := interpolate.Series([]interpolate.ScenarioInputs{
		scenario("nl2019", 2030,
			slider("costs", 10.0),
			&models.Input{Key: "weather", Unit: "enum", User: "default"}),
		scenario("nl2019", 2050,
			slider("costs", 30.0),
			&models.Input{Key: "weather", Unit: "enum", User: "default"}),
	}, []int{2040})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{"costs": 20.0, "weather": "default"}
	if diff := cmp.Diff(want, result.ValuesFor(2040)); diff != "" {
		t.Errorf("ValuesFor mismatch (-want +got):\n%s", diff)
	}
	if values := result.ValuesFor(2041); values != nil {
		t.Errorf("expected nil for an unknown year, got %v", values)
	}

	frame := result.Frame()
	if diff := cmp.Diff([]string{"input", "unit", "2030", "2040", "2050"}, frame.Columns); diff != "" {
		t.Errorf("frame columns mismatch (-want +got):\n%s", diff)
	}
	cells, ok := frame.Column("2040")
	if !ok {
		t.Fatal("missing 2040 column")
	}
	if diff := cmp.Diff([]string{"20", "default"}, cells); diff != "" {
		t.Errorf("frame cells mismatch (-want +got):\n%s", diff)
	}
}
