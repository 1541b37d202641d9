// SPDX-License-Identifier: EUPL-1.2

package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Sortable is one user-orderable list of a scenario. Most orders are flat;
// heat_network carries one order per temperature subtype (lt, mt, ht).
type Sortable struct {
	Type    string   `json:"type"`
	Subtype string   `json:"subtype,omitempty"`
	Order   []string `json:"order"`
}

// Key returns the identifier used in logs and lookups, including the subtype
// for nested orders.
func (s Sortable) Key() string {
	if s.Subtype != "" {
		return s.Type + "." + s.Subtype
	}
	return s.Type
}

// SortableCollection is the flat view over a scenario's user_sortables
// document, regardless of whether the source JSON was nested.
type SortableCollection struct {
	Sortables []Sortable
}

// DecodeSortables parses the user_sortables document. Flat lists become one
// Sortable; nested objects yield one Sortable per subtype.
func DecodeSortables(raw map[string]json.RawMessage) (*SortableCollection, error) {
	types := make([]string, 0, len(raw))
	for t := range raw {
		types = append(types, t)
	}
	sort.Strings(types)

	var items []Sortable
	for _, typ := range types {
		payload := raw[typ]

		var flat []string
		if err := json.Unmarshal(payload, &flat); err == nil {
			items = append(items, Sortable{Type: typ, Order: flat})
			continue
		}

		var nested map[string][]string
		if err := json.Unmarshal(payload, &nested); err != nil {
			return nil, fmt.Errorf("unexpected payload for %q: %s", typ, payload)
		}
		subtypes := make([]string, 0, len(nested))
		for sub := range nested {
			subtypes = append(subtypes, sub)
		}
		sort.Strings(subtypes)
		for _, sub := range subtypes {
			items = append(items, Sortable{Type: typ, Subtype: sub, Order: nested[sub]})
		}
	}
	return &SortableCollection{Sortables: items}, nil
}

// Len returns the number of orders, counting each subtype separately.
func (c *SortableCollection) Len() int { return len(c.Sortables) }

// Keys returns the type of every order; heat_network repeats per subtype.
func (c *SortableCollection) Keys() []string {
	keys := make([]string, len(c.Sortables))
	for i, s := range c.Sortables {
		keys[i] = s.Type
	}
	return keys
}

// Get returns the order of the given type, and subtype when non-empty.
func (c *SortableCollection) Get(typ, subtype string) (Sortable, bool) {
	for _, s := range c.Sortables {
		if s.Type == typ && s.Subtype == subtype {
			return s, true
		}
	}
	return Sortable{}, false
}

// AsMap rebuilds the wire shape of the user_sortables document: flat lists
// for plain orders, subtype objects for nested ones.
func (c *SortableCollection) AsMap() map[string]any {
	result := make(map[string]any)
	for _, s := range c.Sortables {
		if s.Subtype != "" {
			nested, ok := result[s.Type].(map[string][]string)
			if !ok {
				nested = make(map[string][]string)
				result[s.Type] = nested
			}
			nested[s.Subtype] = s.Order
		} else {
			result[s.Type] = s.Order
		}
	}
	return result
}
