// SPDX-License-Identifier: EUPL-1.2

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sortablesDoc = `{
	"forecast_storage_order": ["a", "b", "c"],
	"heat_network_order": {
		"lt": ["one", "two"],
		"mt": ["three"],
		"ht": ["four", "five"]
	},
	"hydrogen_supply_order": ["x", "y"]
}`

func TestDecodeSortables(t *testing.T) {
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(sortablesDoc), &raw))

	coll, err := DecodeSortables(raw)
	require.NoError(t, err)

	// heat_network_order expands into one entry per subtype.
	require.Equal(t, 5, coll.Len())
	assert.Equal(t, []string{
		"forecast_storage_order",
		"heat_network_order",
		"heat_network_order",
		"heat_network_order",
		"hydrogen_supply_order",
	}, coll.Keys())

	flat, ok := coll.Get("forecast_storage_order", "")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, flat.Order)
	assert.Equal(t, "forecast_storage_order", flat.Key())

	mt, ok := coll.Get("heat_network_order", "mt")
	require.True(t, ok)
	assert.Equal(t, []string{"three"}, mt.Order)
	assert.Equal(t, "heat_network_order.mt", mt.Key())

	_, ok = coll.Get("heat_network_order", "xx")
	assert.False(t, ok)
}

func TestDecodeSortablesBadPayload(t *testing.T) {
	raw := map[string]json.RawMessage{
		"forecast_storage_order": json.RawMessage(`42`),
	}
	_, err := DecodeSortables(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast_storage_order")
}

func TestSortablesAsMap(t *testing.T) {
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(sortablesDoc), &raw))

	coll, err := DecodeSortables(raw)
	require.NoError(t, err)

	m := coll.AsMap()
	assert.Equal(t, []string{"a", "b", "c"}, m["forecast_storage_order"])

	nested, ok := m["heat_network_order"].(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, nested["lt"])
	assert.Equal(t, []string{"four", "five"}, nested["ht"])
}
