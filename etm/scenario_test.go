// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestCreateScenario(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scenarios", r.URL.Path)

		body := decodeBody(t, r)
		scenario, ok := body["scenario"].(map[string]any)
		require.True(t, ok, "request must wrap attributes in a scenario key")
		assert.Equal(t, "nl2019", scenario["area_code"])
		assert.Equal(t, float64(2050), scenario["end_year"])

		_, _ = w.Write([]byte(`{"id": 648696, "area_code": "nl2019", "end_year": 2050, "start_year": 2019}`))
	}), Options{})

	scenario, err := client.CreateScenario(context.Background(), ScenarioAttrs{
		AreaCode: "nl2019",
		EndYear:  2050,
	})
	require.NoError(t, err)
	assert.Equal(t, 648696, scenario.ID)
	assert.Equal(t, "nl2019", scenario.AreaCode)
	assert.Equal(t, 2019, scenario.StartYear)
}

func TestCreateScenarioRequiresAreaAndYear(t *testing.T) {
	client := New("https://engine.example.org/api/v3", Options{})

	_, err := client.CreateScenario(context.Background(), ScenarioAttrs{EndYear: 2050})
	assert.ErrorContains(t, err, "area code is required")

	_, err = client.CreateScenario(context.Background(), ScenarioAttrs{AreaCode: "nl2019"})
	assert.ErrorContains(t, err, "end year is required")
}

func TestCopyScenario(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		scenario := body["scenario"].(map[string]any)

		// The engine wants the source id as a string.
		assert.Equal(t, "648696", scenario["scenario_id"])

		_, _ = w.Write([]byte(`{"id": 648697, "area_code": "nl2019", "end_year": 2050}`))
	}), Options{})

	copied, err := client.CopyScenario(context.Background(), 648696, ScenarioAttrs{})
	require.NoError(t, err)
	assert.Equal(t, 648697, copied.ID)
}

func TestCopyScenarioAppliesAttrs(t *testing.T) {
	var calls []string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		switch r.Method {
		case http.MethodPost:
			body := decodeBody(t, r)
			scenario := body["scenario"].(map[string]any)
			assert.Equal(t, "648696", scenario["scenario_id"])

			_, _ = w.Write([]byte(`{"id": 648697, "area_code": "nl2019", "end_year": 2050}`))
		case http.MethodPut:
			body := decodeBody(t, r)
			scenario := body["scenario"].(map[string]any)
			assert.Equal(t, true, scenario["keep_compatible"])

			_, _ = w.Write([]byte(`{"scenario": {"id": 648697, "keep_compatible": true}}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}), Options{})

	keep := true
	copied, err := client.CopyScenario(context.Background(), 648696, ScenarioAttrs{KeepCompatible: &keep})
	require.NoError(t, err)
	assert.True(t, copied.KeepCompatible)
	assert.Equal(t, []string{
		"POST /scenarios",
		"PUT /scenarios/648697",
	}, calls)
}

func TestUpdateScenarioUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/scenarios/648696", r.URL.Path)

		_, _ = w.Write([]byte(`{"scenario": {"id": 648696, "keep_compatible": true}, "gqueries": {}}`))
	}), Options{})

	keep := true
	scenario, err := client.UpdateScenario(context.Background(), 648696, ScenarioAttrs{KeepCompatible: &keep})
	require.NoError(t, err)
	assert.Equal(t, 648696, scenario.ID)
	assert.True(t, scenario.KeepCompatible)
}

func TestSetUserValues(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, true, body["detailed"])

		scenario := body["scenario"].(map[string]any)
		values := scenario["user_values"].(map[string]any)
		assert.Equal(t, 42.5, values["wind_turbine_share"])

		_, _ = w.Write([]byte(`{
			"scenario": {
				"id": 648696,
				"user_values": {"wind_turbine_share": 42.5},
				"balanced_values": {"solar_share": 57.5}
			},
			"gqueries": {}
		}`))
	}), Options{})

	scenario, err := client.SetUserValues(context.Background(), 648696, map[string]any{
		"wind_turbine_share": 42.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, scenario.UserValues["wind_turbine_share"])

	balanced := scenario.Balanced()
	require.Len(t, balanced, 1)
	assert.Equal(t, "solar_share", balanced[0].Key)
}

func TestResetScenario(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, true, body["reset"])
		_, _ = w.Write([]byte(`{}`))
	}), Options{})

	require.NoError(t, client.ResetScenario(context.Background(), 648696))
}

func TestInterpolateScenario(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			assert.Equal(t, "/scenarios/648696", r.URL.Path)
			_, _ = w.Write([]byte(`{"id": 648696, "end_year": 2050, "start_year": 2019}`))
		default:
			assert.Equal(t, "/scenarios/648696/interpolate", r.URL.Path)
			body := decodeBody(t, r)
			assert.Equal(t, float64(2035), body["end_year"])
			_, _ = w.Write([]byte(`{"id": 700000, "end_year": 2035}`))
		}
	}), Options{})

	scenario, err := client.InterpolateScenario(context.Background(), 648696, 2035)
	require.NoError(t, err)
	assert.Equal(t, 700000, scenario.ID)
	assert.Equal(t, 2035, scenario.EndYear)
}

func TestInterpolateScenarioRejectsNon2050Source(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 648696, "end_year": 2040, "start_year": 2019}`))
	}), Options{})

	_, err := client.InterpolateScenario(context.Background(), 648696, 2035)
	assert.ErrorContains(t, err, "only 2050 scenarios can be interpolated")
}

func TestInterpolateScenarioRejectsYearOutsideRange(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 648696, "end_year": 2050, "start_year": 2019}`))
	}), Options{})

	_, err := client.InterpolateScenario(context.Background(), 648696, 2019)
	assert.ErrorContains(t, err, "outside")

	_, err = client.InterpolateScenario(context.Background(), 648696, 2051)
	assert.ErrorContains(t, err, "outside")
}

func TestListScenarios(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scenarios", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`{"data": [{"id": 1}, {"id": 2}], "meta": {"total": 52}}`))
	}), Options{})

	page, err := client.ListScenarios(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 52, page.Meta.Total)
}

func TestMyScenariosWalksPages(t *testing.T) {
	const total = 60

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token/info" {
			_, _ = w.Write([]byte(`{"scope": ["public", "scenarios:read"], "created_at": 1700000000}`))
			return
		}

		var page int
		_, err := fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		require.NoError(t, err)

		start := (page - 1) * 25
		count := total - start
		if count > 25 {
			count = 25
		}

		docs := make([]string, 0, count)
		for i := 0; i < count; i++ {
			docs = append(docs, fmt.Sprintf(`{"id": %d}`, start+i+1))
		}
		fmt.Fprintf(w, `{"data": [%s], "meta": {"total": %d}}`, strings.Join(docs, ","), total)
	}), Options{})

	scenarios, err := client.MyScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, total)
	assert.Equal(t, 1, scenarios[0].ID)
	assert.Equal(t, total, scenarios[total-1].ID)
}

func TestMyScenariosNeedsReadScope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scope": ["public"], "created_at": 1700000000}`))
	}), Options{})

	_, err := client.MyScenarios(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteScenario(t *testing.T) {
	var deleted bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token/info" {
			_, _ = w.Write([]byte(`{"scope": ["scenarios:delete"], "created_at": 1700000000}`))
			return
		}
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/scenarios/648696", r.URL.Path)
		deleted = true
		_, _ = w.Write([]byte(`{}`))
	}), Options{})

	require.NoError(t, client.DeleteScenario(context.Background(), 648696))
	assert.True(t, deleted)
}
