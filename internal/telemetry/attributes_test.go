// SPDX-License-Identifier: EUPL-1.2

package telemetry

import (
	"testing"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("PUT", "/scenarios/{id}", "/scenarios/123456", 200)

	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}

	want := map[string]string{
		"http.method": "PUT",
		"http.route":  "/scenarios/{id}",
		"http.url":    "/scenarios/123456",
	}
	for _, attr := range attrs {
		key := string(attr.Key)
		if expected, ok := want[key]; ok {
			if attr.Value.AsString() != expected {
				t.Errorf("%s = %q, want %q", key, attr.Value.AsString(), expected)
			}
			delete(want, key)
		}
		if key == "http.status_code" && attr.Value.AsInt64() != 200 {
			t.Errorf("http.status_code = %d, want 200", attr.Value.AsInt64())
		}
	}
	if len(want) != 0 {
		t.Errorf("missing attributes: %v", want)
	}
}

func TestScenarioAttributes(t *testing.T) {
	attrs := ScenarioAttributes(123456, "nl2019", 2050)
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}

	attrs = ScenarioAttributes(123456, "", 0)
	if len(attrs) != 1 {
		t.Fatalf("expected scenario id only, got %d attributes", len(attrs))
	}
	if string(attrs[0].Key) != "etm.scenario.id" {
		t.Errorf("key = %s, want etm.scenario.id", attrs[0].Key)
	}
}
