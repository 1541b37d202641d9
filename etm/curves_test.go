// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meritEnabledHandler answers the merit order toggle lookup performed before
// any curve download.
func meritEnabledHandler(t *testing.T, enabled int, curves http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/inputs/settings_enable_merit_order") {
			_, _ = w.Write([]byte(`{"unit": "bool", "default": ` + strconv.Itoa(enabled) + `}`))
			return
		}
		curves(w, r)
	}
}

func TestCurve(t *testing.T) {
	const doc = "Time,Price (Euros)\n2050-01-01 00:00,12.5\n2050-01-01 01:00,14.25\n"

	client := newTestClient(t, meritEnabledHandler(t, 1, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios/648696/curves/electricity_price", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(doc))
	}), Options{})

	frame, err := client.Curve(context.Background(), 648696, CurveElectricityPrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "Price (Euros)"}, frame.Columns)
	assert.Equal(t, 2, frame.NumRows())
}

func TestCurveUnknownKind(t *testing.T) {
	client := New("https://engine.example.org/api/v3", Options{})

	_, err := client.Curve(context.Background(), 648696, "spot_prices")
	assert.ErrorContains(t, err, `unknown curve kind "spot_prices"`)
}

func TestCurveRequiresMeritOrder(t *testing.T) {
	var curveFetched bool
	client := newTestClient(t, meritEnabledHandler(t, 0, func(w http.ResponseWriter, r *http.Request) {
		curveFetched = true
	}), Options{})

	_, err := client.Curve(context.Background(), 648696, CurveMeritOrder)
	assert.ErrorIs(t, err, ErrMeritOrderDisabled)
	assert.False(t, curveFetched, "curves must not be fetched while the merit order is off")
}

func TestElectricityPriceCurve(t *testing.T) {
	const doc = "Time,Price (Euros)\n2050-01-01 00:00,12.5\n2050-01-01 01:00,14.25\n"

	client := newTestClient(t, meritEnabledHandler(t, 1, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doc))
	}), Options{})

	prices, err := client.ElectricityPriceCurve(context.Background(), 648696)
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 14.25}, prices)
}

func TestExportTable(t *testing.T) {
	const doc = "key,group,demand\nmetal,industry,110.5\nchemical,industry,230.75\n"

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios/648696/application_demands", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(doc))
	}), Options{})

	frame, err := client.ApplicationDemands(context.Background(), 648696)
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "group", "demand"}, frame.Columns)

	demand, err := frame.FloatColumn("demand")
	require.NoError(t, err)
	assert.Equal(t, []float64{110.5, 230.75}, demand)
}

func TestExportTableUnknownTable(t *testing.T) {
	client := New("https://engine.example.org/api/v3", Options{})

	_, err := client.ExportTable(context.Background(), 648696, "molecule_flows")
	assert.ErrorContains(t, err, `unknown table "molecule_flows"`)
}
