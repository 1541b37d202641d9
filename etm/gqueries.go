// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"fmt"

	"github.com/quintel/goetm/models"
)

// Query evaluates gqueries against a scenario and returns their present and
// future values.
func (c *Client) Query(ctx context.Context, scenarioID int, gqueries []string) (models.GqueryResults, error) {
	if len(gqueries) == 0 {
		return nil, fmt.Errorf("etm: query scenario: no gqueries given")
	}

	body := map[string]any{"gqueries": gqueries}

	var resp updateResponse
	if err := c.putJSON(ctx, "query scenario", scenarioPath(scenarioID), body, &resp); err != nil {
		return nil, err
	}
	if resp.Gqueries == nil {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: "query scenario",
			Err: fmt.Errorf("response missing gqueries document")}
	}
	return resp.Gqueries, nil
}
