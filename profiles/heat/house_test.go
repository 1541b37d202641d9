// SPDX-License-Identifier: EUPL-1.2

package heat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHouse() House {
	var thermostat [24]float64
	for i := range thermostat {
		thermostat[i] = 18
	}
	// Daytime setpoint raise drives a daily demand pattern.
	for i := 7; i < 22; i++ {
		thermostat[i] = 20
	}

	return House{
		Type:            "terraced_houses",
		InsulationLevel: "medium",
		Behaviour:       1,
		RValue:          2.5,
		WindowArea:      5,
		SurfaceArea:     140,
		WallThickness:   0.12,
		Thermostat:      thermostat,
	}
}

func constSeries(value float64) []float64 {
	series := make([]float64, HoursPerYear)
	for i := range series {
		series[i] = value
	}
	return series
}

func TestHouseDerivedProperties(t *testing.T) {
	house := testHouse()

	assert.InDelta(t, 0.4, house.UValue(), 1e-12)
	// 140 m2 * 0.12 m * 2400 kg/m3
	assert.InDelta(t, 40320.0, house.ConcreteMass(), 1e-9)
	// mass * 880 / 3.6e6
	assert.InDelta(t, 9.856, house.HeatCapacity(), 1e-9)
	// u * surface / 1e3
	assert.InDelta(t, 0.056, house.ExchangeDelta(), 1e-12)
}

func TestProfileName(t *testing.T) {
	assert.Equal(t, "weather/insulation_terraced_houses_medium", testHouse().ProfileName())
}

func TestDemandProfileShapeAndNormalization(t *testing.T) {
	house := testHouse()

	profile, err := house.DemandProfile(constSeries(5), constSeries(0), nil)
	require.NoError(t, err)
	require.Len(t, profile, HoursPerYear)

	var sum float64
	for _, v := range profile {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	// Normalized profiles sum to 1/3600.
	assert.InDelta(t, 1.0/3.6e3, sum, 1e-9)
}

func TestDemandProfileIsDeterministic(t *testing.T) {
	house := testHouse()

	first, err := house.DemandProfile(constSeries(5), constSeries(100), nil)
	require.NoError(t, err)
	second, err := house.DemandProfile(constSeries(5), constSeries(100), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDemandProfileValidation(t *testing.T) {
	house := testHouse()

	_, err := house.DemandProfile(make([]float64, 100), constSeries(0), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")

	_, err = house.DemandProfile(constSeries(5), make([]float64, 100), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "irradiance")

	bad := house
	bad.RValue = 0
	_, err = bad.DemandProfile(constSeries(5), constSeries(0), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r_value")
}

func TestDemandProfileUnknownInsulationLevel(t *testing.T) {
	house := testHouse()
	house.InsulationLevel = "passive"

	_, err := house.DemandProfile(constSeries(5), constSeries(0), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insulation level")
}
