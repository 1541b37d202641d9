// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Merit participant types, grouped the way the engine's merit order treats
// them.
var (
	ConsumerTypes = []string{"total_consumption", "with_curve"}
	FlexibleTypes = []string{"generic", "storage"}
	ProducerTypes = []string{"dispatchable", "must_run", "volatile"}
)

// MeritNumber decodes engine numerics that may arrive as JSON null or as the
// literal string "null" from older engine versions.
type MeritNumber struct {
	Float64 float64
	Valid   bool
}

func (n *MeritNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `"null"` {
		*n = MeritNumber{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MeritParticipant is one unit taking part in the merit order calculation.
type MeritParticipant struct {
	Key                   string      `json:"key"`
	Type                  string      `json:"type"`
	Curve                 string      `json:"curve,omitempty"`
	MarginalCosts         MeritNumber `json:"marginal_costs"`
	Availability          MeritNumber `json:"availability"`
	NumberOfUnits         MeritNumber `json:"number_of_units"`
	OutputCapacityPerUnit MeritNumber `json:"output_capacity_per_unit"`
}

// MeritConfig is the merit order configuration of a scenario, optionally
// including the hourly curve of every participant.
type MeritConfig struct {
	Participants []MeritParticipant   `json:"participants"`
	Curves       map[string][]float64 `json:"curves,omitempty"`
}

// MeritConfiguration fetches the merit order configuration. Pass
// includeCurves to also download the hourly participant curves, which makes
// the response considerably larger.
func (c *Client) MeritConfiguration(ctx context.Context, scenarioID int, includeCurves bool) (*MeritConfig, error) {
	query := url.Values{}
	query.Set("include_curves", boolParam(includeCurves))

	var config MeritConfig
	if err := c.getJSON(ctx, "fetch merit configuration", scenarioPath(scenarioID)+"/merit", query, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ParticipantsByType returns the participants whose type is in the given
// set, sorted by key. An empty set selects everything.
func (m *MeritConfig) ParticipantsByType(types ...string) []MeritParticipant {
	var out []MeritParticipant
	for _, p := range m.Participants {
		if len(types) == 0 || containsString(types, p.Type) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ParticipantCurve returns the hourly curve of a participant, when the
// configuration was fetched with curves included.
func (m *MeritConfig) ParticipantCurve(key string) ([]float64, bool) {
	for _, p := range m.Participants {
		if p.Key == key && p.Curve != "" {
			curve, ok := m.Curves[p.Curve]
			return curve, ok
		}
	}
	return nil, false
}

// BidRung is one dispatchable unit of the bid ladder.
type BidRung struct {
	Key           string
	MarginalCosts float64
	Capacity      float64
}

// BidLadder returns the dispatchable units ordered by marginal costs. The
// capacity of a unit is its availability times the number of units times the
// capacity per unit. Units with missing numbers are skipped.
func (m *MeritConfig) BidLadder() []BidRung {
	var rungs []BidRung
	for _, p := range m.ParticipantsByType("dispatchable") {
		if !p.MarginalCosts.Valid || !p.Availability.Valid ||
			!p.NumberOfUnits.Valid || !p.OutputCapacityPerUnit.Valid {
			continue
		}
		rungs = append(rungs, BidRung{
			Key:           p.Key,
			MarginalCosts: p.MarginalCosts.Float64,
			Capacity:      p.Availability.Float64 * p.NumberOfUnits.Float64 * p.OutputCapacityPerUnit.Float64,
		})
	}
	sort.Slice(rungs, func(i, j int) bool { return rungs[i].MarginalCosts < rungs[j].MarginalCosts })
	return rungs
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
