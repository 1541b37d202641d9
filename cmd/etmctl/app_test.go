// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintel/goetm/etm"
)

func TestParseScenarioID(t *testing.T) {
	id, err := parseScenarioID([]string{"648696"})
	require.NoError(t, err)
	assert.Equal(t, 648696, id)

	_, err = parseScenarioID(nil)
	assert.Error(t, err)

	_, err = parseScenarioID([]string{"abc"})
	assert.Error(t, err)

	_, err = parseScenarioID([]string{"-1"})
	assert.Error(t, err)
}

func TestParseKeyValues(t *testing.T) {
	values, err := parseKeyValues([]string{
		"investment_costs_combustion=25.5",
		"settings_enable_merit_order=true",
		"settings_weather_curve_set=1987",
		"heat_network=default",
	})
	require.NoError(t, err)

	assert.Equal(t, 25.5, values["investment_costs_combustion"])
	assert.Equal(t, true, values["settings_enable_merit_order"])
	assert.Equal(t, 1987.0, values["settings_weather_curve_set"])
	assert.Equal(t, "default", values["heat_network"])
}

func TestParseKeyValuesRejectsMalformed(t *testing.T) {
	_, err := parseKeyValues(nil)
	assert.Error(t, err)

	_, err = parseKeyValues([]string{"no-separator"})
	assert.Error(t, err)

	_, err = parseKeyValues([]string{"=value"})
	assert.Error(t, err)
}

func TestTypedValue(t *testing.T) {
	assert.Equal(t, 1.0, typedValue("1"))
	assert.Equal(t, false, typedValue("FALSE"))
	assert.Equal(t, "reset", typedValue("reset"))
}

func TestSelectCurveKinds(t *testing.T) {
	kinds, err := selectCurveKinds("all")
	require.NoError(t, err)
	assert.Equal(t, etm.CurveKinds, kinds)

	kinds, err = selectCurveKinds("merit_order")
	require.NoError(t, err)
	assert.Equal(t, []string{"merit_order"}, kinds)

	_, err = selectCurveKinds("bogus")
	assert.Error(t, err)
}

func TestCurveFileName(t *testing.T) {
	assert.Equal(t, "scenario_648696_merit-order.csv", curveFileName(648696, "merit_order"))
	assert.Equal(t, "scenario_1_heat-network-order.csv", curveFileName(1, "heat_network/order"))
}

func TestRunUnknownCommand(t *testing.T) {
	assert.Equal(t, 2, run([]string{"bogus"}))
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 0, run([]string{"version"}))
}
