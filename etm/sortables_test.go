// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSortables(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios/648696/user_sortables", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"forecast_storage_order": ["household_batteries", "ev_batteries"],
			"heat_network_order": {
				"lt": ["heat_pump", "geothermal"],
				"mt": ["geothermal", "heat_pump"],
				"ht": ["waste_heat"]
			}
		}`))
	}), Options{})

	sortables, err := client.UserSortables(context.Background(), 648696)
	require.NoError(t, err)

	order, ok := sortables.Get("forecast_storage_order", "")
	require.True(t, ok)
	assert.Equal(t, []string{"household_batteries", "ev_batteries"}, order.Order)

	mt, ok := sortables.Get("heat_network_order", "mt")
	require.True(t, ok)
	assert.Equal(t, []string{"geothermal", "heat_pump"}, mt.Order)
}

func TestForecastStorageOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios/648696/forecast_storage_order", r.URL.Path)
		_, _ = w.Write([]byte(`{"order": ["household_batteries", "ev_batteries", "large_scale_batteries"]}`))
	}), Options{})

	order, err := client.ForecastStorageOrder(context.Background(), 648696)
	require.NoError(t, err)
	assert.Equal(t, []string{"household_batteries", "ev_batteries", "large_scale_batteries"}, order)
}

func TestSetHeatNetworkOrder(t *testing.T) {
	var updated []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"order": ["geothermal", "heat_pump", "waste_heat"]}`))
		case http.MethodPut:
			body := decodeBody(t, r)
			for _, item := range body["order"].([]any) {
				updated = append(updated, item.(string))
			}
			_, _ = w.Write([]byte(`{"order": ["waste_heat", "geothermal", "heat_pump"]}`))
		}
	}), Options{})

	err := client.SetHeatNetworkOrder(context.Background(), 648696,
		[]string{"waste_heat", "geothermal", "heat_pump"})
	require.NoError(t, err)
	assert.Equal(t, []string{"waste_heat", "geothermal", "heat_pump"}, updated)
}

func TestSetOrderRejectsUnknownItems(t *testing.T) {
	var putCalled bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			putCalled = true
		}
		_, _ = w.Write([]byte(`{"order": ["geothermal", "heat_pump"]}`))
	}), Options{})

	err := client.SetHeatNetworkOrder(context.Background(), 648696, []string{"fusion_reactor"})
	assert.ErrorContains(t, err, `invalid order item "fusion_reactor"`)
	assert.False(t, putCalled, "invalid orders must be rejected before the request is sent")
}
