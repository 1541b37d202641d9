// SPDX-License-Identifier: EUPL-1.2

package csvio

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 50

// foldAccents strips combining marks after NFD decomposition, so "é" folds
// to "e". German umlauts are replaced up front to keep the customary
// two-letter spellings.
var umlauts = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug turns a scenario title or curve key into a safe file name fragment.
// Example: "Hoog Warmtenet / 2050" becomes "hoog-warmtenet-2050".
func Slug(name string) string {
	if name == "" {
		return "scenario"
	}

	s := umlauts.Replace(strings.ToLower(name))
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "scenario"
	}
	return slug
}

// StableName builds "slug-suffix" where the suffix is a short hash of the
// discriminator. Two scenarios with the same title still get distinct file
// names as long as their ids differ.
func StableName(name, discriminator string) string {
	sum := sha1.Sum([]byte(discriminator))
	return Slug(name) + "-" + hex.EncodeToString(sum[:])[:6]
}
