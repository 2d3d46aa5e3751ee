package folio

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var slugFormat = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugifyFormat(t *testing.T) {
	titles := []string{
		"Hello, World! 2025",
		"  Leading and trailing  ",
		"Multiple---separators___here",
		"CamelCase Title",
		"Ünïcödé Café",
		"a",
		"1 2 3",
		"trailing punctuation!!!",
	}
	for _, title := range titles {
		slug := Slugify(title)
		if slug == "" {
			t.Errorf("Slugify(%q) returned empty slug", title)
			continue
		}
		if !slugFormat.MatchString(slug) {
			t.Errorf("Slugify(%q) = %q, does not match slug format", title, slug)
		}
	}
}

func TestSlugifyExamples(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World! 2025", "hello-world-2025"},
		{"Go & SQLite", "go-sqlite"},
		{"Café au lait", "cafe-au-lait"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"UPPER case", "upper-case"},
	}
	for _, c := range cases {
		if got := Slugify(c.title); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestSlugifyDegenerateInput(t *testing.T) {
	for _, title := range []string{"", "   ", "!!!", "---", "★☆★"} {
		if got := Slugify(title); got != "" {
			t.Errorf("Slugify(%q) = %q, want empty string for degenerate input", title, got)
		}
	}
}

func TestFallbackSlug(t *testing.T) {
	at := time.UnixMilli(1735689600000)
	slug := FallbackSlug(at)
	if slug != "untitled-1735689600000" {
		t.Errorf("FallbackSlug = %q, want untitled-1735689600000", slug)
	}
	if !slugFormat.MatchString(slug) {
		t.Errorf("FallbackSlug %q does not match slug format", slug)
	}
}

func TestDisambiguateSlug(t *testing.T) {
	at := time.UnixMilli(1735689600000)
	slug := DisambiguateSlug("hello-world", at)
	if slug != "hello-world-1735689600000" {
		t.Errorf("DisambiguateSlug = %q", slug)
	}
	if !slugFormat.MatchString(slug) {
		t.Errorf("disambiguated slug %q does not match slug format", slug)
	}
	if !strings.HasPrefix(slug, "hello-world-") {
		t.Errorf("disambiguated slug %q lost its base", slug)
	}
}
