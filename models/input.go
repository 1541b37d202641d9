// SPDX-License-Identifier: EUPL-1.2

// Package models holds the domain types exchanged with ETEngine: scenarios,
// inputs, sortable orders, custom curves, gquery results and CSV frames.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Input units as reported by the engine. Anything that is not a bool or an
// enum behaves as a float slider.
const (
	UnitBool = "bool"
	UnitEnum = "enum"
)

// Input is a single scenario slider. The engine distinguishes three shapes by
// unit: booleans, enumerations with a fixed permitted set, and floats with a
// min/max range. All share the same envelope.
type Input struct {
	Key              string   `json:"key"`
	Unit             string   `json:"unit"`
	Default          any      `json:"default,omitempty"`
	User             any      `json:"user,omitempty"`
	Disabled         bool     `json:"disabled,omitempty"`
	CouplingDisabled bool     `json:"coupling_disabled,omitempty"`
	CouplingGroups   []string `json:"coupling_groups,omitempty"`
	DisabledBy       string   `json:"disabled_by,omitempty"`

	// Float inputs only.
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Step       *float64 `json:"step,omitempty"`
	ShareGroup string   `json:"share_group,omitempty"`

	// Enum inputs only.
	PermittedValues []string `json:"permitted_values,omitempty"`
}

// IsBool reports whether the input is a boolean slider.
func (in *Input) IsBool() bool { return in.Unit == UnitBool }

// IsEnum reports whether the input is an enumeration.
func (in *Input) IsEnum() bool { return in.Unit == UnitEnum }

// IsFloat reports whether the input is a continuous slider.
func (in *Input) IsFloat() bool { return !in.IsBool() && !in.IsEnum() }

// Value returns the user value when set, falling back to the default.
func (in *Input) Value() any {
	if in.User != nil {
		return in.User
	}
	return in.Default
}

// FloatValue returns the effective value as a float64. The second return is
// false when no value is set or the input is not numeric.
func (in *Input) FloatValue() (float64, bool) {
	return asFloat(in.Value())
}

// Validate checks a candidate user value against the input's unit rules.
func (in *Input) Validate(value any) error {
	if in.Disabled {
		return fmt.Errorf("input %s: disabled%s", in.Key, disabledBySuffix(in.DisabledBy))
	}

	switch {
	case in.IsBool():
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("input %s: expected bool, got %T", in.Key, value)
		}
	case in.IsEnum():
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("input %s: expected one of %v, got %T", in.Key, in.PermittedValues, value)
		}
		for _, permitted := range in.PermittedValues {
			if s == permitted {
				return nil
			}
		}
		return fmt.Errorf("input %s: %q is not a permitted value %v", in.Key, s, in.PermittedValues)
	default:
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("input %s: expected number, got %T", in.Key, value)
		}
		if in.Min != nil && f < *in.Min {
			return fmt.Errorf("input %s: %v below minimum %v", in.Key, f, *in.Min)
		}
		if in.Max != nil && f > *in.Max {
			return fmt.Errorf("input %s: %v above maximum %v", in.Key, f, *in.Max)
		}
	}
	return nil
}

func disabledBySuffix(by string) string {
	if by == "" {
		return ""
	}
	return fmt.Sprintf(" (disabled by %s)", by)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// InputCollection holds all inputs of a scenario with stable key order.
type InputCollection struct {
	inputs []*Input
	byKey  map[string]*Input
}

// NewInputCollection builds a collection from already-decoded inputs,
// preserving the given order.
func NewInputCollection(inputs []*Input) *InputCollection {
	c := &InputCollection{
		inputs: inputs,
		byKey:  make(map[string]*Input, len(inputs)),
	}
	for _, in := range inputs {
		c.byKey[in.Key] = in
	}
	return c
}

// DecodeInputs parses the engine's inputs document, a JSON object keyed by
// input key. Keys are sorted for deterministic iteration.
func DecodeInputs(raw map[string]json.RawMessage) (*InputCollection, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inputs := make([]*Input, 0, len(keys))
	for _, key := range keys {
		var in Input
		if err := json.Unmarshal(raw[key], &in); err != nil {
			return nil, fmt.Errorf("decode input %s: %w", key, err)
		}
		in.Key = key
		inputs = append(inputs, &in)
	}
	return NewInputCollection(inputs), nil
}

// Len returns the number of inputs.
func (c *InputCollection) Len() int { return len(c.inputs) }

// Keys returns the input keys in collection order.
func (c *InputCollection) Keys() []string {
	keys := make([]string, len(c.inputs))
	for i, in := range c.inputs {
		keys[i] = in.Key
	}
	return keys
}

// Get looks an input up by key.
func (c *InputCollection) Get(key string) (*Input, bool) {
	in, ok := c.byKey[key]
	return in, ok
}

// All returns the inputs in collection order.
func (c *InputCollection) All() []*Input { return c.inputs }

// UserValues returns every input with a user-set value.
func (c *InputCollection) UserValues() map[string]any {
	out := make(map[string]any)
	for _, in := range c.inputs {
		if in.User != nil {
			out[in.Key] = in.User
		}
	}
	return out
}

// ShareGroups returns float inputs grouped by their share group.
func (c *InputCollection) ShareGroups() map[string][]*Input {
	groups := make(map[string][]*Input)
	for _, in := range c.inputs {
		if in.ShareGroup != "" {
			groups[in.ShareGroup] = append(groups[in.ShareGroup], in)
		}
	}
	return groups
}

// shareGroupTolerance is the slack ETEngine allows when share group members
// must add up to 100.
const shareGroupTolerance = 1e-2

// ValidateShareGroups verifies that every share group with at least one
// user-set member sums to 100.
func (c *InputCollection) ValidateShareGroups() error {
	for group, members := range c.ShareGroups() {
		touched := false
		sum := 0.0
		for _, in := range members {
			if in.User != nil {
				touched = true
			}
			if f, ok := in.FloatValue(); ok {
				sum += f
			}
		}
		if touched && math.Abs(sum-100) > shareGroupTolerance {
			keys := make([]string, len(members))
			for i, in := range members {
				keys[i] = in.Key
			}
			return fmt.Errorf("share group %s does not sum to 100 (got %v), groups %v", group, sum, keys)
		}
	}
	return nil
}

// BalancedInput is one engine-balanced value of a share group, as returned in
// the scenario's balanced_values document.
type BalancedInput struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// DecodeBalancedInputs parses a balanced_values object (key to value).
func DecodeBalancedInputs(raw map[string]any) []BalancedInput {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]BalancedInput, 0, len(keys))
	for _, k := range keys {
		out = append(out, BalancedInput{Key: k, Value: raw[k]})
	}
	return out
}
