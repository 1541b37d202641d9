// SPDX-License-Identifier: EUPL-1.2

package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quintel/goetm/models"
)

func newScenarioCacheForTest() *ScenarioCache {
	return NewScenarioCache(newMemoryCache(clockwork.NewFakeClock(), 0), time.Minute)
}

func TestScenarioCacheRoundTrip(t *testing.T) {
	sc := newScenarioCacheForTest()

	sc.SetScenario(&models.Scenario{ID: 648696, AreaCode: "nl2019", EndYear: 2050})

	scenario, found := sc.Scenario(648696)
	if !found {
		t.Fatal("expected cached scenario")
	}
	if scenario.AreaCode != "nl2019" || scenario.EndYear != 2050 {
		t.Errorf("unexpected scenario: %+v", scenario)
	}

	if _, found := sc.Scenario(999); found {
		t.Fatal("unexpected hit for unknown scenario")
	}
}

func TestScenarioCacheIgnoresIncompleteHeaders(t *testing.T) {
	sc := newScenarioCacheForTest()

	sc.SetScenario(nil)
	sc.SetScenario(&models.Scenario{AreaCode: "nl2019"})

	if stats := sc.Stats(); stats.Sets != 0 {
		t.Errorf("sets = %d, want 0", stats.Sets)
	}
}

func TestScenarioCacheInputs(t *testing.T) {
	sc := newScenarioCacheForTest()

	coll := models.NewInputCollection([]*models.Input{
		{Key: "investment_costs_combustion", Unit: "%", User: 10.0},
		{Key: "settings_enable_merit_order", Unit: "bool", Default: 1.0},
	})
	sc.SetInputs(648696, false, coll)

	cached, found := sc.Inputs(648696, false)
	if !found {
		t.Fatal("expected cached inputs")
	}
	if cached.Len() != 2 {
		t.Fatalf("len = %d, want 2", cached.Len())
	}

	input, ok := cached.Get("investment_costs_combustion")
	if !ok {
		t.Fatal("expected input to survive the round trip")
	}
	if value, _ := input.FloatValue(); value != 10.0 {
		t.Errorf("value = %v, want 10", value)
	}

	// Original-defaults inputs live under their own key.
	if _, found := sc.Inputs(648696, true); found {
		t.Fatal("unexpected hit for original-defaults inputs")
	}
}

func TestScenarioCacheInvalidate(t *testing.T) {
	sc := newScenarioCacheForTest()

	sc.SetScenario(&models.Scenario{ID: 648696, AreaCode: "nl2019"})
	sc.SetInputs(648696, false, models.NewInputCollection(nil))
	sc.SetScenario(&models.Scenario{ID: 700000, AreaCode: "de"})

	sc.Invalidate(648696)

	if _, found := sc.Scenario(648696); found {
		t.Fatal("header must be gone after invalidation")
	}
	if _, found := sc.Inputs(648696, false); found {
		t.Fatal("inputs must be gone after invalidation")
	}
	if _, found := sc.Scenario(700000); !found {
		t.Fatal("other scenarios must survive invalidation")
	}

	sc.InvalidateAll()
	if _, found := sc.Scenario(700000); found {
		t.Fatal("nothing survives InvalidateAll")
	}
}
