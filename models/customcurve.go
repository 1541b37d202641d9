// SPDX-License-Identifier: EUPL-1.2

package models

import "time"

// CurveLength is the number of hourly values the engine expects in an
// uploaded custom curve: one year at hourly resolution.
const CurveLength = 8760

// CustomCurveInfo describes one custom curve slot of a scenario as returned
// by the custom_curves index endpoint.
type CustomCurveInfo struct {
	Key            string             `json:"key"`
	Type           string             `json:"type,omitempty"`
	Name           string             `json:"name,omitempty"`
	Attached       bool               `json:"attached"`
	Overrides      []string           `json:"overrides,omitempty"`
	Internal       bool               `json:"internal,omitempty"`
	Date           *time.Time         `json:"date,omitempty"`
	Stats          map[string]float64 `json:"stats,omitempty"`
	SourceScenario *int               `json:"source_scenario,omitempty"`
}

// CustomCurveSet is the decoded custom_curves index.
type CustomCurveSet struct {
	Curves []CustomCurveInfo
}

// Len returns the number of curve slots in the set.
func (s *CustomCurveSet) Len() int { return len(s.Curves) }

// Find returns the curve info for key, if present.
func (s *CustomCurveSet) Find(key string) (CustomCurveInfo, bool) {
	for _, c := range s.Curves {
		if c.Key == key {
			return c, true
		}
	}
	return CustomCurveInfo{}, false
}

// IsAttached reports whether the curve with the given key has data attached.
func (s *CustomCurveSet) IsAttached(key string) bool {
	c, ok := s.Find(key)
	return ok && c.Attached
}

// AttachedKeys returns the keys of every attached curve, in set order.
func (s *CustomCurveSet) AttachedKeys() []string {
	var keys []string
	for _, c := range s.Curves {
		if c.Attached {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Keys returns every curve key in the set, attached or not.
func (s *CustomCurveSet) Keys() []string {
	keys := make([]string, len(s.Curves))
	for i, c := range s.Curves {
		keys[i] = c.Key
	}
	return keys
}
