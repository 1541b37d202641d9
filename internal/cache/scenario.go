// SPDX-License-Identifier: EUPL-1.2

package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quintel/goetm/models"
)

// Resources cached per scenario.
const (
	resourceHeader         = "header"
	resourceInputs         = "inputs"
	resourceInputsOriginal = "inputs_original"
)

var scenarioResources = []string{
	resourceHeader,
	resourceInputs,
	resourceInputsOriginal,
}

// ScenarioCache is a typed layer over a Cache backend. Values are stored as
// JSON strings so the memory and redis backends behave identically.
type ScenarioCache struct {
	backend Cache
	ttl     time.Duration
}

// NewScenarioCache wraps a backend with scenario-document accessors. Entries
// live for ttl.
func NewScenarioCache(backend Cache, ttl time.Duration) *ScenarioCache {
	return &ScenarioCache{backend: backend, ttl: ttl}
}

func scenarioKey(scenarioID int, resource string) string {
	return fmt.Sprintf("scenario:%d:%s", scenarioID, resource)
}

// Scenario returns the cached scenario header.
func (s *ScenarioCache) Scenario(scenarioID int) (*models.Scenario, bool) {
	var scenario models.Scenario
	if !s.get(scenarioKey(scenarioID, resourceHeader), &scenario) {
		return nil, false
	}
	return &scenario, true
}

// SetScenario stores a scenario header under its own id.
func (s *ScenarioCache) SetScenario(scenario *models.Scenario) {
	if scenario == nil || scenario.ID == 0 {
		return
	}
	s.put(scenarioKey(scenario.ID, resourceHeader), scenario)
}

// Inputs returns the cached input collection of a scenario.
func (s *ScenarioCache) Inputs(scenarioID int, originalDefaults bool) (*models.InputCollection, bool) {
	var inputs []*models.Input
	if !s.get(scenarioKey(scenarioID, inputsResource(originalDefaults)), &inputs) {
		return nil, false
	}
	return models.NewInputCollection(inputs), true
}

// SetInputs stores a scenario's input collection.
func (s *ScenarioCache) SetInputs(scenarioID int, originalDefaults bool, coll *models.InputCollection) {
	if coll == nil {
		return
	}
	s.put(scenarioKey(scenarioID, inputsResource(originalDefaults)), coll.All())
}

func inputsResource(originalDefaults bool) string {
	if originalDefaults {
		return resourceInputsOriginal
	}
	return resourceInputs
}

// Invalidate drops every cached document of a scenario. Called after any
// mutation, matching the engine's behavior of recomputing dependent values.
func (s *ScenarioCache) Invalidate(scenarioID int) {
	for _, resource := range scenarioResources {
		s.backend.Delete(scenarioKey(scenarioID, resource))
	}
}

// InvalidateAll drops the whole cache.
func (s *ScenarioCache) InvalidateAll() {
	s.backend.Clear()
}

// Stats exposes the backend counters.
func (s *ScenarioCache) Stats() Stats {
	return s.backend.Stats()
}

func (s *ScenarioCache) put(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.backend.Set(key, string(data), s.ttl)
}

func (s *ScenarioCache) get(key string, out any) bool {
	raw, ok := s.backend.Get(key)
	if !ok {
		return false
	}
	data, ok := raw.(string)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(data), out) == nil
}
