// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quintel/goetm/models"
)

// orderDocument is the wire shape of the standalone order endpoints.
type orderDocument struct {
	Order []string `json:"order"`
}

// UserSortables fetches every user-orderable list of a scenario in one call.
func (c *Client) UserSortables(ctx context.Context, scenarioID int) (*models.SortableCollection, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "fetch sortables", scenarioPath(scenarioID)+"/user_sortables", nil, &raw); err != nil {
		return nil, err
	}

	coll, err := models.DecodeSortables(raw)
	if err != nil {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: "fetch sortables", Err: err}
	}
	return coll, nil
}

// ForecastStorageOrder returns the order in which storage technologies
// respond to forecast errors.
func (c *Client) ForecastStorageOrder(ctx context.Context, scenarioID int) ([]string, error) {
	return c.order(ctx, "fetch forecast storage order", scenarioID, "forecast_storage_order")
}

// SetForecastStorageOrder replaces the forecast storage order. Every item
// must already be part of the current order; the engine rejects unknown
// technologies.
func (c *Client) SetForecastStorageOrder(ctx context.Context, scenarioID int, order []string) error {
	return c.setOrder(ctx, "update forecast storage order", scenarioID, "forecast_storage_order", order)
}

// HeatNetworkOrder returns the dispatch order of heat network technologies.
func (c *Client) HeatNetworkOrder(ctx context.Context, scenarioID int) ([]string, error) {
	return c.order(ctx, "fetch heat network order", scenarioID, "heat_network_order")
}

// SetHeatNetworkOrder replaces the heat network dispatch order.
func (c *Client) SetHeatNetworkOrder(ctx context.Context, scenarioID int, order []string) error {
	return c.setOrder(ctx, "update heat network order", scenarioID, "heat_network_order", order)
}

func (c *Client) order(ctx context.Context, op string, scenarioID int, endpoint string) ([]string, error) {
	var doc orderDocument
	if err := c.getJSON(ctx, op, scenarioPath(scenarioID)+"/"+endpoint, nil, &doc); err != nil {
		return nil, err
	}
	return doc.Order, nil
}

func (c *Client) setOrder(ctx context.Context, op string, scenarioID int, endpoint string, order []string) error {
	current, err := c.order(ctx, op, scenarioID, endpoint)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(current))
	for _, item := range current {
		known[item] = struct{}{}
	}
	for _, item := range order {
		if _, ok := known[item]; !ok {
			return fmt.Errorf("etm: %s: invalid order item %q", op, item)
		}
	}

	if err := c.putJSON(ctx, op, scenarioPath(scenarioID)+"/"+endpoint, orderDocument{Order: order}, nil); err != nil {
		return err
	}
	c.invalidate(scenarioID)
	return nil
}
