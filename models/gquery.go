// SPDX-License-Identifier: EUPL-1.2

package models

import "sort"

// GqueryResult holds the outcome of a single gquery evaluated against a
// scenario: the value in the scenario's start year and in its end year.
type GqueryResult struct {
	Unit    string `json:"unit"`
	Present any    `json:"present"`
	Future  any    `json:"future"`
}

// PresentFloat returns the present value as a float64 where the gquery
// produced a numeric result.
func (r GqueryResult) PresentFloat() (float64, bool) { return asFloat(r.Present) }

// FutureFloat returns the future value as a float64 where the gquery
// produced a numeric result.
func (r GqueryResult) FutureFloat() (float64, bool) { return asFloat(r.Future) }

// GqueryResults maps gquery keys to their evaluated results.
type GqueryResults map[string]GqueryResult

// Keys returns the gquery keys in sorted order.
func (g GqueryResults) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the result for key, if present.
func (g GqueryResults) Get(key string) (GqueryResult, bool) {
	r, ok := g[key]
	return r, ok
}
