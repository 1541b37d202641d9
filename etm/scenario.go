// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/quintel/goetm/models"
)

// interpolationBaseYear is the only end year the engine interpolates from.
const interpolationBaseYear = 2050

// ScenarioAttrs are the writable scenario header fields. Zero values are
// omitted from the request.
type ScenarioAttrs struct {
	AreaCode       string         `json:"area_code,omitempty"`
	EndYear        int            `json:"end_year,omitempty"`
	Source         string         `json:"source,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	KeepCompatible *bool          `json:"keep_compatible,omitempty"`
	Private        *bool          `json:"private,omitempty"`
}

// updateResponse is the envelope of scenario update calls.
type updateResponse struct {
	Scenario *models.Scenario     `json:"scenario"`
	Gqueries models.GqueryResults `json:"gqueries"`
}

// PageMeta carries collection pagination counters.
type PageMeta struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page,omitempty"`
	PerPage     int `json:"per_page,omitempty"`
	TotalPages  int `json:"total_pages,omitempty"`
}

// ScenarioPage is one page of the scenario index.
type ScenarioPage struct {
	Data []models.Scenario `json:"data"`
	Meta PageMeta          `json:"meta"`
}

// CreateScenario creates a fresh scenario for an area and end year.
func (c *Client) CreateScenario(ctx context.Context, attrs ScenarioAttrs) (*models.Scenario, error) {
	if attrs.AreaCode == "" {
		return nil, fmt.Errorf("etm: create scenario: area code is required")
	}
	if attrs.EndYear == 0 {
		return nil, fmt.Errorf("etm: create scenario: end year is required")
	}

	var scenario models.Scenario
	body := map[string]any{"scenario": attrs}
	if err := c.postJSON(ctx, "create scenario", "/scenarios", body, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// CopyScenario creates a new scenario that is a copy of an existing one. The
// engine expects the source id as a string and applies attrs to the copy in
// a follow-up update; zero attrs inherit the source's settings.
func (c *Client) CopyScenario(ctx context.Context, sourceID int, attrs ScenarioAttrs) (*models.Scenario, error) {
	body := map[string]any{
		"scenario": map[string]string{"scenario_id": strconv.Itoa(sourceID)},
	}

	var scenario models.Scenario
	if err := c.postJSON(ctx, "copy scenario", "/scenarios", body, &scenario); err != nil {
		return nil, err
	}

	if attrs.isZero() {
		return &scenario, nil
	}
	return c.UpdateScenario(ctx, scenario.ID, attrs)
}

func (a ScenarioAttrs) isZero() bool {
	return a.AreaCode == "" && a.EndYear == 0 && a.Source == "" &&
		a.Metadata == nil && a.KeepCompatible == nil && a.Private == nil
}

// Scenario fetches the scenario header.
func (c *Client) Scenario(ctx context.Context, scenarioID int) (*models.Scenario, error) {
	if c.cache != nil {
		if scenario, ok := c.cache.Scenario(scenarioID); ok {
			return scenario, nil
		}
	}

	var scenario models.Scenario
	if err := c.getJSON(ctx, "fetch scenario", scenarioPath(scenarioID), nil, &scenario); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetScenario(&scenario)
	}
	return &scenario, nil
}

// UpdateScenario changes scenario header fields such as metadata, privacy
// and compatibility.
func (c *Client) UpdateScenario(ctx context.Context, scenarioID int, attrs ScenarioAttrs) (*models.Scenario, error) {
	body := map[string]any{"scenario": attrs}

	var resp updateResponse
	if err := c.putJSON(ctx, "update scenario", scenarioPath(scenarioID), body, &resp); err != nil {
		return nil, err
	}
	c.invalidate(scenarioID)
	return resp.Scenario, nil
}

// SetUserValues updates slider values. The detailed response carries the
// user values and engine balanced values of affected share groups.
func (c *Client) SetUserValues(ctx context.Context, scenarioID int, values map[string]any) (*models.Scenario, error) {
	body := map[string]any{
		"scenario": map[string]any{"user_values": values},
		"detailed": true,
	}

	var resp updateResponse
	if err := c.putJSON(ctx, "set user values", scenarioPath(scenarioID), body, &resp); err != nil {
		return nil, err
	}
	c.invalidate(scenarioID)
	return resp.Scenario, nil
}

// ResetScenario restores user values, heat network order and forecast
// storage order to their defaults.
func (c *Client) ResetScenario(ctx context.Context, scenarioID int) error {
	body := map[string]any{"reset": true}
	if err := c.putJSON(ctx, "reset scenario", scenarioPath(scenarioID), body, nil); err != nil {
		return err
	}
	c.invalidate(scenarioID)
	return nil
}

// DeleteScenario removes a scenario. The token needs the scenarios:delete
// scope; the scope is checked before the request is sent.
func (c *Client) DeleteScenario(ctx context.Context, scenarioID int) error {
	if err := c.requireScope(ctx, ScopeScenariosDelete); err != nil {
		return err
	}
	if err := c.delete(ctx, "delete scenario", scenarioPath(scenarioID)); err != nil {
		return err
	}
	c.invalidate(scenarioID)
	return nil
}

// InterpolateScenario creates a scenario whose values are interpolated
// between the source's start year and 2050. Only 2050 scenarios can be
// interpolated by the engine.
func (c *Client) InterpolateScenario(ctx context.Context, scenarioID, endYear int) (*models.Scenario, error) {
	source, err := c.Scenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if source.EndYear != interpolationBaseYear {
		return nil, fmt.Errorf("etm: interpolate scenario: scenario %d ends in %d, only %d scenarios can be interpolated",
			scenarioID, source.EndYear, interpolationBaseYear)
	}

	if endYear <= source.StartYear || endYear > interpolationBaseYear {
		return nil, fmt.Errorf("etm: interpolate scenario: end year %d outside (%d, %d]",
			endYear, source.StartYear, interpolationBaseYear)
	}

	body := map[string]any{"end_year": endYear}

	var scenario models.Scenario
	if err := c.postJSON(ctx, "interpolate scenario", scenarioPath(scenarioID)+"/interpolate", body, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// ListScenarios fetches one page of the scenarios owned by the token's
// account.
func (c *Client) ListScenarios(ctx context.Context, page, limit int) (*ScenarioPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result ScenarioPage
	if err := c.getJSON(ctx, "list scenarios", "/scenarios", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MyScenarios walks all pages of the scenario index.
func (c *Client) MyScenarios(ctx context.Context) ([]models.Scenario, error) {
	if err := c.requireScope(ctx, ScopeScenariosRead); err != nil {
		return nil, err
	}

	const pageSize = 25

	var scenarios []models.Scenario
	for page := 1; ; page++ {
		result, err := c.ListScenarios(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, result.Data...)

		if len(result.Data) < pageSize {
			break
		}
		if result.Meta.Total > 0 && len(scenarios) >= result.Meta.Total {
			break
		}
	}
	return scenarios, nil
}

func scenarioPath(scenarioID int) string {
	return "/scenarios/" + strconv.Itoa(scenarioID)
}
