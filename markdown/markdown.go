// Package markdown renders article markdown to sanitized HTML as a templ
// component.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		// Raw HTML in article bodies passes through goldmark and is
		// stripped by the sanitizer afterwards.
		html.WithUnsafe(),
	),
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	p.AllowAttrs("width", "height").OnElements("img")
	return p
}

// Render writes the sanitized HTML representation of source to buf.
func Render(buf *bytes.Buffer, source string) error {
	var raw bytes.Buffer
	if err := md.Convert([]byte(source), &raw); err != nil {
		return fmt.Errorf("markdown: convert: %w", err)
	}
	buf.Write(policy.SanitizeBytes(raw.Bytes()))
	return nil
}

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := Render(&buf, content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}
