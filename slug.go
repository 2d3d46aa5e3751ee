package folio

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes unicode characters and strips combining marks, so
// "Café" slugifies to "cafe" instead of dropping the accented rune.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title to a URL-safe slug: lowercase [a-z0-9],
// with runs of anything else collapsed to single hyphens and hyphens
// trimmed from both ends. Returns "" for titles with no usable runes.
func Slugify(s string) string {
	if flat, _, err := transform.String(deaccent, s); err == nil {
		s = flat
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// FallbackSlug returns a stable non-empty slug for titles that slugify to
// nothing (empty or all-punctuation input).
func FallbackSlug(at time.Time) string {
	return fmt.Sprintf("untitled-%d", at.UnixMilli())
}

// DisambiguateSlug appends a millisecond timestamp suffix to a slug that
// collided with an existing record. The result still matches the slug
// format since the suffix is purely numeric.
func DisambiguateSlug(slug string, at time.Time) string {
	return fmt.Sprintf("%s-%d", slug, at.UnixMilli())
}
