// SPDX-License-Identifier: EUPL-1.2

package models

import (
	"time"
)

// Scenario mirrors the engine's scenario document. Only the ID is guaranteed;
// everything else depends on which endpoint produced the document.
type Scenario struct {
	ID             int            `json:"id"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
	EndYear        int            `json:"end_year,omitempty"`
	StartYear      int            `json:"start_year,omitempty"`
	KeepCompatible bool           `json:"keep_compatible,omitempty"`
	Private        bool           `json:"private,omitempty"`
	AreaCode       string         `json:"area_code,omitempty"`
	Source         string         `json:"source,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Scaling        any            `json:"scaling,omitempty"`
	Template       *int           `json:"template,omitempty"`
	URL            string         `json:"url,omitempty"`

	// Populated by update responses when detailed=true.
	UserValues     map[string]any `json:"user_values,omitempty"`
	BalancedValues map[string]any `json:"balanced_values,omitempty"`
}

// Balanced returns the engine-balanced share group values in key order.
func (s *Scenario) Balanced() []BalancedInput {
	return DecodeBalancedInputs(s.BalancedValues)
}

// Metadata holds the header fields of a scenario as returned by the show
// endpoint; unlike Scenario most fields are required here.
type Metadata struct {
	ID             int            `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	EndYear        int            `json:"end_year"`
	KeepCompatible bool           `json:"keep_compatible"`
	Private        bool           `json:"private"`
	AreaCode       string         `json:"area_code"`
	Source         string         `json:"source"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	StartYear      int            `json:"start_year,omitempty"`
	Scaling        any            `json:"scaling,omitempty"`
	Template       *int           `json:"template,omitempty"`
	URL            string         `json:"url,omitempty"`
}

// MetaKeys lists the scenario header fields a metadata fetch extracts.
var MetaKeys = []string{
	"id",
	"created_at",
	"updated_at",
	"end_year",
	"keep_compatible",
	"private",
	"area_code",
	"source",
	"metadata",
	"start_year",
	"scaling",
	"template",
	"url",
}

// SavedScenario is an entry of the user's saved scenario list.
type SavedScenario struct {
	ID          int        `json:"id"`
	ScenarioID  int        `json:"scenario_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Private     bool       `json:"private,omitempty"`
	AreaCode    string     `json:"area_code,omitempty"`
	EndYear     int        `json:"end_year,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// History of scenario ids attached to this saved scenario, newest first.
	ScenarioIDHistory []int `json:"scenario_id_history,omitempty"`
}
