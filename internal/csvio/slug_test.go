// SPDX-License-Identifier: EUPL-1.2

package csvio

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "My Scenario",
			expected: "my-scenario",
		},
		{
			name:     "curve key with slash",
			input:    "weather/insulation_terraced_houses_low",
			expected: "weather-insulation-terraced-houses-low",
		},
		{
			name:     "dutch title",
			input:    "Hoog Warmtenet / 2050",
			expected: "hoog-warmtenet-2050",
		},
		{
			name:     "german umlauts keep two letter form",
			input:    "Wärmepumpen für Großstädte",
			expected: "waermepumpen-fuer-grossstaedte",
		},
		{
			name:     "accents fold",
			input:    "Électricité São Paulo",
			expected: "electricite-sao-paulo",
		},
		{
			name:     "multiple separators collapse",
			input:    "a  --  b",
			expected: "a-b",
		},
		{
			name:     "empty falls back",
			input:    "",
			expected: "scenario",
		},
		{
			name:     "symbols only falls back",
			input:    "///",
			expected: "scenario",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlugCapsLength(t *testing.T) {
	slug := Slug(strings.Repeat("verylongword ", 10))
	if len(slug) > maxSlugLen {
		t.Fatalf("slug length %d exceeds %d", len(slug), maxSlugLen)
	}
	if strings.HasSuffix(slug, "-") {
		t.Fatalf("slug %q ends with dash", slug)
	}
}

func TestStableName(t *testing.T) {
	a := StableName("My Scenario", "12345")
	b := StableName("My Scenario", "67890")

	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
	if !strings.HasPrefix(a, "my-scenario-") {
		t.Fatalf("unexpected prefix: %q", a)
	}
	if a != StableName("My Scenario", "12345") {
		t.Fatal("StableName is not deterministic")
	}
}
