// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeritNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		value float64
		valid bool
	}{
		{name: "number", doc: `12.5`, value: 12.5, valid: true},
		{name: "zero", doc: `0`, value: 0, valid: true},
		{name: "json null", doc: `null`, valid: false},
		{name: "string null from old engines", doc: `"null"`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n MeritNumber
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &n))
			assert.Equal(t, tt.valid, n.Valid)
			if tt.valid {
				assert.Equal(t, tt.value, n.Float64)
			}
		})
	}
}

func TestMeritNumberUnmarshalRejectsText(t *testing.T) {
	var n MeritNumber
	assert.Error(t, json.Unmarshal([]byte(`"twelve"`), &n))
}

const meritDoc = `{
	"participants": [
		{"key": "energy_power_ultra_supercritical_coal", "type": "dispatchable",
		 "marginal_costs": 30.5, "availability": 0.9, "number_of_units": 3, "output_capacity_per_unit": 800},
		{"key": "energy_power_combined_cycle_network_gas", "type": "dispatchable",
		 "marginal_costs": 22.1, "availability": 0.95, "number_of_units": 2, "output_capacity_per_unit": 500},
		{"key": "energy_power_nuclear_gen3", "type": "dispatchable",
		 "marginal_costs": "null", "availability": 0.85, "number_of_units": 1, "output_capacity_per_unit": 1600},
		{"key": "energy_power_solar_pv", "type": "volatile", "curve": "solar_pv",
		 "marginal_costs": null, "availability": 1, "number_of_units": 10000, "output_capacity_per_unit": 0.02},
		{"key": "buildings_space_heater", "type": "total_consumption",
		 "marginal_costs": null, "availability": null, "number_of_units": null, "output_capacity_per_unit": null}
	],
	"curves": {
		"solar_pv": [0, 0.25, 0.5]
	}
}`

func TestMeritConfiguration(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios/648696/merit", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_curves"))
		_, _ = w.Write([]byte(meritDoc))
	}), Options{})

	config, err := client.MeritConfiguration(context.Background(), 648696, true)
	require.NoError(t, err)
	assert.Len(t, config.Participants, 5)

	curve, ok := config.ParticipantCurve("energy_power_solar_pv")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0.25, 0.5}, curve)

	_, ok = config.ParticipantCurve("buildings_space_heater")
	assert.False(t, ok)
}

func TestMeritConfigurationWithoutCurves(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("include_curves"))
		_, _ = w.Write([]byte(`{"participants": []}`))
	}), Options{})

	_, err := client.MeritConfiguration(context.Background(), 648696, false)
	require.NoError(t, err)
}

func TestParticipantsByType(t *testing.T) {
	var config MeritConfig
	require.NoError(t, json.Unmarshal([]byte(meritDoc), &config))

	producers := config.ParticipantsByType(ProducerTypes...)
	require.Len(t, producers, 4)
	assert.Equal(t, "energy_power_combined_cycle_network_gas", producers[0].Key, "sorted by key")

	consumers := config.ParticipantsByType(ConsumerTypes...)
	require.Len(t, consumers, 1)
	assert.Equal(t, "buildings_space_heater", consumers[0].Key)

	everything := config.ParticipantsByType()
	assert.Len(t, everything, 5)
}

func TestBidLadder(t *testing.T) {
	var config MeritConfig
	require.NoError(t, json.Unmarshal([]byte(meritDoc), &config))

	ladder := config.BidLadder()

	// The nuclear plant has no marginal costs and is skipped.
	require.Len(t, ladder, 2)

	assert.Equal(t, "energy_power_combined_cycle_network_gas", ladder[0].Key)
	assert.InDelta(t, 0.95*2*500, ladder[0].Capacity, 1e-9)

	assert.Equal(t, "energy_power_ultra_supercritical_coal", ladder[1].Key)
	assert.InDelta(t, 0.9*3*800, ladder[1].Capacity, 1e-9)
}
