// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/quintel/goetm/models"
)

// meritOrderInput is the slider that toggles hourly merit order
// calculations.
const meritOrderInput = "settings_enable_merit_order"

// Inputs fetches every input of a scenario, keyed by input key.
func (c *Client) Inputs(ctx context.Context, scenarioID int) (*models.InputCollection, error) {
	return c.inputs(ctx, scenarioID, false)
}

// InputsWithOriginalDefaults fetches inputs with defaults taken from the
// scenario's source dataset instead of inherited values. Useful for
// scenarios created through interpolation.
func (c *Client) InputsWithOriginalDefaults(ctx context.Context, scenarioID int) (*models.InputCollection, error) {
	return c.inputs(ctx, scenarioID, true)
}

func (c *Client) inputs(ctx context.Context, scenarioID int, originalDefaults bool) (*models.InputCollection, error) {
	if c.cache != nil {
		if coll, ok := c.cache.Inputs(scenarioID, originalDefaults); ok {
			return coll, nil
		}
	}

	var query url.Values
	if originalDefaults {
		query = url.Values{}
		query.Set("defaults", "original")
	}

	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "fetch inputs", scenarioPath(scenarioID)+"/inputs", query, &raw); err != nil {
		return nil, err
	}

	coll, err := models.DecodeInputs(raw)
	if err != nil {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: "fetch inputs", Err: err}
	}
	if c.cache != nil {
		c.cache.SetInputs(scenarioID, originalDefaults, coll)
	}
	return coll, nil
}

// Input fetches a single input by key.
func (c *Client) Input(ctx context.Context, scenarioID int, key string) (*models.Input, error) {
	var input models.Input
	if err := c.getJSON(ctx, "fetch input", scenarioPath(scenarioID)+"/inputs/"+key, nil, &input); err != nil {
		return nil, err
	}
	// single input documents omit their own key
	input.Key = key
	return &input, nil
}

// MeritOrderEnabled reports whether hourly merit order calculations are
// switched on for the scenario.
func (c *Client) MeritOrderEnabled(ctx context.Context, scenarioID int) (bool, error) {
	input, err := c.Input(ctx, scenarioID, meritOrderInput)
	if err != nil {
		return false, err
	}

	value, ok := input.FloatValue()
	if !ok || (value != 0 && value != 1) {
		return false, fmt.Errorf("etm: invalid setting: %q=%v", meritOrderInput, input.Value())
	}
	return value == 1, nil
}
