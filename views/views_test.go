package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/kelder/folio"
)

func renderToString(t *testing.T, cmp templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := cmp.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func testConfig() folio.SiteConfig {
	return folio.SiteConfig{
		Name:        "Test Site",
		URL:         "http://test.local",
		Description: "A site for tests",
		Author:      "Tester",
	}
}

func TestArticlePageHead(t *testing.T) {
	cfg := testConfig()
	a := folio.Article{
		Slug:    "first-post",
		Title:   "First Post",
		Excerpt: "The very first one",
		Content: "# Hello",
		Link:    "/blog/first-post",
	}
	got := renderToString(t, articlePage(cfg, a, nil, false))

	for _, want := range []string{
		`<title>First Post — Test Site</title>`,
		`<meta name="description" content="The very first one">`,
		`<meta property="og:type" content="article">`,
		`<link rel="canonical" href="http://test.local/blog/first-post/">`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("article head missing %q", want)
		}
	}
}

func TestLayoutMetaFallbacks(t *testing.T) {
	cfg := testConfig()
	got := renderToString(t, page(cfg, "About", "<h1>About</h1>"))

	// Pages that only set a title fall back to the site description and the
	// website og:type, with no canonical link.
	if !strings.Contains(got, `<meta name="description" content="A site for tests">`) {
		t.Errorf("site description fallback missing: %q", got)
	}
	if !strings.Contains(got, `<meta property="og:type" content="website">`) {
		t.Errorf("og:type fallback missing: %q", got)
	}
	if strings.Contains(got, "canonical") {
		t.Errorf("canonical link emitted without a URL: %q", got)
	}
}

func TestArticlePageLikeControl(t *testing.T) {
	cfg := testConfig()
	a := folio.Article{Slug: "first-post", Title: "First Post", Content: "x"}

	fresh := renderToString(t, articlePage(cfg, a, nil, false))
	if !strings.Contains(fresh, `<button id="like">`) {
		t.Errorf("like button missing or pre-disabled: %q", fresh)
	}

	liked := renderToString(t, articlePage(cfg, a, nil, true))
	if !strings.Contains(liked, `<button id="like" disabled>`) {
		t.Errorf("liked browser should get a disabled control: %q", liked)
	}
	// The click handler bails when the button is disabled, so a double
	// click cannot fire a second request.
	if !strings.Contains(liked, "btn.disabled = true") {
		t.Errorf("click handler does not disable the button: %q", liked)
	}
}
