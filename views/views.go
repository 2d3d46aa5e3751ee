// Package views provides a plain default template set for folio. Sites that
// want their own look supply their own ViewFuncs; these components exist so
// a freshly scaffolded site renders something sensible out of the box.
package views

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/kelder/folio"
	"github.com/kelder/folio/markdown"
)

// Default returns a ViewFuncs set rendering minimal, unstyled-but-usable
// pages for every surface the engine serves.
func Default(cfg folio.SiteConfig) folio.ViewFuncs {
	return folio.ViewFuncs{
		Home: func(articles []folio.Article, projects []folio.Project, activeTag string, tags []string, siteURL string) templ.Component {
			return home(cfg, articles, projects, activeTag, tags)
		},
		About:    func() templ.Component { return page(cfg, "About", aboutBody(cfg)) },
		Projects: func(projects []folio.Project) templ.Component { return projectList(cfg, projects) },
		Project:  func(p folio.Project, siteURL string) templ.Component { return projectPage(cfg, p) },
		Article: func(a folio.Article, related []folio.Article, liked bool, siteURL string) templ.Component {
			return articlePage(cfg, a, related, liked)
		},
		Contact: func(sent bool, csrfToken string) templ.Component { return contact(cfg, sent, csrfToken) },
		AdminDashboard: func(articles []folio.Article, projects []folio.Project, message, csrfToken string) templ.Component {
			return adminDashboard(cfg, articles, projects, message, csrfToken)
		},
		AdminArticleForm: func(a folio.Article, csrfToken string) templ.Component { return articleForm(cfg, a, csrfToken) },
		AdminProjectForm: func(p folio.Project, csrfToken string) templ.Component { return projectForm(cfg, p, csrfToken) },
		AdminImages:      func(images []folio.Image, csrfToken string) templ.Component { return imageList(cfg, images, csrfToken) },
		AdminMessages:    func(msgs []folio.ContactMessage, csrfToken string) templ.Component { return messageList(cfg, msgs) },
		NotFound:         func() templ.Component { return status(cfg, "404", "Page not found.") },
		ServerError:      func() templ.Component { return status(cfg, "500", "Something went wrong.") },
	}
}

func esc(s string) string { return html.EscapeString(s) }

func writeMarkdown(w io.Writer, content string) error {
	var buf bytes.Buffer
	if err := markdown.Render(&buf, content); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// layout wraps body in the shared page chrome. The PageMeta fills the head:
// title, description, canonical URL, and OpenGraph tags, with site-level
// fallbacks for pages that only set a title.
func layout(cfg folio.SiteConfig, meta folio.PageMeta, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		desc := meta.Description
		if desc == "" {
			desc = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>%s — %s</title>`+
			`<meta name="description" content="%s">`+
			`<meta property="og:title" content="%s">`+
			`<meta property="og:type" content="%s">`,
			esc(meta.Title), esc(cfg.Name), esc(desc), esc(meta.Title), esc(ogType))
		if meta.URL != "" {
			fmt.Fprintf(w, `<link rel="canonical" href="%s"><meta property="og:url" content="%s">`,
				esc(meta.URL), esc(meta.URL))
		}
		fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`+
			`</head><body><header><nav>`+
			`<a href="/">%s</a> · <a href="/projects/">Projects</a> · `+
			`<a href="/about/">About</a> · <a href="/contact/">Contact</a>`+
			`</nav></header><main>`,
			folio.WebsiteJsonLD(cfg), esc(cfg.Name))
		if err := body(w); err != nil {
			return err
		}
		fmt.Fprintf(w, `</main><footer><p>%s</p></footer></body></html>`, esc(cfg.Author))
		return nil
	})
}

func page(cfg folio.SiteConfig, title string, bodyHTML string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: title}, func(w io.Writer) error {
		_, err := io.WriteString(w, bodyHTML)
		return err
	})
}

func aboutBody(cfg folio.SiteConfig) string {
	return fmt.Sprintf(`<h1>About</h1><p>%s</p>`, esc(cfg.Description))
}

func status(cfg folio.SiteConfig, code, msg string) templ.Component {
	return page(cfg, code, fmt.Sprintf(`<h1>%s</h1><p>%s</p>`, esc(code), esc(msg)))
}

func home(cfg folio.SiteConfig, articles []folio.Article, projects []folio.Project, activeTag string, tags []string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Home", URL: cfg.URL}, func(w io.Writer) error {
		fmt.Fprintf(w, `<h1>%s</h1><p>%s</p>`, esc(cfg.Name), esc(cfg.Description))
		fmt.Fprint(w, `<section><h2>Featured projects</h2><ul>`)
		for _, p := range projects {
			if !p.Featured {
				continue
			}
			fmt.Fprintf(w, `<li><a href="%s">%s</a> — %s</li>`, esc(p.Link), esc(p.Title), esc(p.Description))
		}
		fmt.Fprint(w, `</ul></section><section><h2>Blog</h2>`)
		if len(tags) > 0 {
			fmt.Fprint(w, `<p>`)
			for _, t := range tags {
				if t == activeTag {
					fmt.Fprintf(w, `<strong>%s</strong> `, esc(t))
				} else {
					fmt.Fprintf(w, `<a href="/?tag=%s">%s</a> `, folio.PathEscape(t), esc(t))
				}
			}
			fmt.Fprint(w, `</p>`)
		}
		fmt.Fprint(w, `<ul>`)
		for _, a := range articles {
			fmt.Fprintf(w, `<li><a href="%s">%s</a> <small>%s · %d views</small></li>`,
				esc(a.Link), esc(a.Title), a.CreatedAt.Format("2006-01-02"), a.Views)
		}
		fmt.Fprint(w, `</ul></section>`)
		return nil
	})
}

func projectList(cfg folio.SiteConfig, projects []folio.Project) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Projects", URL: folio.BuildURL(cfg.URL, "projects")}, func(w io.Writer) error {
		fmt.Fprint(w, `<h1>Projects</h1><ul>`)
		for _, p := range projects {
			fmt.Fprintf(w, `<li><a href="%s">%s</a> — %s</li>`, esc(p.Link), esc(p.Title), esc(p.Description))
		}
		fmt.Fprint(w, `</ul>`)
		return nil
	})
}

func projectPage(cfg folio.SiteConfig, p folio.Project) templ.Component {
	return layout(cfg, folio.PageMeta{Title: p.Title, Description: p.Description, URL: folio.BuildURL(cfg.URL, "projects", p.Slug)}, func(w io.Writer) error {
		fmt.Fprintf(w, `<article><h1>%s</h1><p>%s</p>`, esc(p.Title), esc(p.Description))
		if p.Image != "" {
			fmt.Fprintf(w, `<img src="%s" alt="%s">`, esc(p.Image), esc(p.Title))
		}
		if err := writeMarkdown(w, p.Content); err != nil {
			return err
		}
		if p.RepoURL != "" {
			fmt.Fprintf(w, `<p><a href="%s">Source</a></p>`, esc(p.RepoURL))
		}
		if p.DemoURL != "" {
			fmt.Fprintf(w, `<p><a href="%s">Live demo</a></p>`, esc(p.DemoURL))
		}
		fmt.Fprint(w, `</article>`)
		return nil
	})
}

func articlePage(cfg folio.SiteConfig, a folio.Article, related []folio.Article, liked bool) templ.Component {
	return layout(cfg, folio.PageMeta{Title: a.Title, Description: a.Excerpt, URL: folio.BuildURL(cfg.URL, "blog", a.Slug), OGType: "article"}, func(w io.Writer) error {
		fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`, folio.BlogPostingJsonLD(a, cfg))
		fmt.Fprintf(w, `<article data-slug="%s"><h1>%s</h1><p><small>%s · %s · %d views · <span id="likes">%d</span> likes</small></p>`,
			esc(a.Slug), esc(a.Title), a.CreatedAt.Format("2006-01-02"), esc(folio.JoinTags(a.Tags)), a.Views, a.Likes)
		if a.Image != "" {
			fmt.Fprintf(w, `<img src="%s" alt="%s">`, esc(a.Image), esc(a.Title))
		}
		if err := writeMarkdown(w, a.Content); err != nil {
			return err
		}
		// The session cookie carries the liked flag, so a browser that
		// already liked gets the control pre-disabled.
		if liked {
			fmt.Fprint(w, `<button id="like" disabled>♥ Liked</button></article>`)
		} else {
			fmt.Fprint(w, `<button id="like">♥ Like</button></article>`)
		}
		if len(related) > 0 {
			fmt.Fprint(w, `<aside><h2>Related</h2><ul>`)
			for _, r := range related {
				fmt.Fprintf(w, `<li><a href="%s">%s</a></li>`, esc(r.Link), esc(r.Title))
			}
			fmt.Fprint(w, `</ul></aside>`)
		}
		// Record the view after render; the server-side guard dedups
		// repeats. The like button disables before the request fires so a
		// double-click cannot send two increments, and re-enables only if
		// the request fails.
		fmt.Fprintf(w, `<script>
fetch('/articles/%[1]s/view', {method: 'POST'});
document.getElementById('like').addEventListener('click', function () {
  var btn = this;
  if (btn.disabled) { return; }
  btn.disabled = true;
  var el = document.getElementById('likes');
  var before = el.textContent;
  el.textContent = (parseInt(before, 10) + 1).toString();
  fetch('/articles/%[1]s/like', {method: 'POST'})
    .then(function (r) { if (!r.ok) { throw new Error(r.status); } return r.json(); })
    .then(function (body) { el.textContent = body.likes; btn.textContent = '♥ Liked'; })
    .catch(function () { el.textContent = before; btn.disabled = false; });
});
</script>`, folio.PathEscape(a.Slug))
		return nil
	})
}

func contact(cfg folio.SiteConfig, sent bool, csrfToken string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Contact", URL: folio.BuildURL(cfg.URL, "contact")}, func(w io.Writer) error {
		fmt.Fprint(w, `<h1>Contact</h1>`)
		if sent {
			fmt.Fprint(w, `<p>Thanks, your message has been sent.</p>`)
			return nil
		}
		fmt.Fprintf(w, `<form method="post" action="/contact/">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<label>Name <input name="name"></label>`+
			`<label>Email <input name="email" type="email"></label>`+
			`<label>Message <textarea name="message" required></textarea></label>`+
			`<button type="submit">Send</button></form>`, esc(csrfToken))
		return nil
	})
}

func adminDashboard(cfg folio.SiteConfig, articles []folio.Article, projects []folio.Project, message, csrfToken string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Admin"}, func(w io.Writer) error {
		fmt.Fprint(w, `<h1>Dashboard</h1>`)
		if message != "" {
			fmt.Fprintf(w, `<p><em>%s</em></p>`, esc(message))
		}
		fmt.Fprint(w, `<p><a href="/admin/images/">Images</a> · <a href="/admin/messages/">Messages</a></p>`)
		fmt.Fprint(w, `<h2>Articles</h2><ul>`)
		for _, a := range articles {
			state := "draft"
			if a.Published {
				state = "published"
			}
			fmt.Fprintf(w, `<li><a href="/admin/article/%s/">%s</a> <small>%s · %d views · %d likes</small></li>`,
				folio.PathEscape(a.Slug), esc(a.Title), state, a.Views, a.Likes)
		}
		fmt.Fprint(w, `</ul><h2>Projects</h2><ul>`)
		for _, p := range projects {
			fmt.Fprintf(w, `<li><a href="/admin/project/%s/">%s</a></li>`, folio.PathEscape(p.Slug), esc(p.Title))
		}
		fmt.Fprint(w, `</ul>`)
		writeArticleForm(w, folio.Article{}, csrfToken)
		writeProjectForm(w, folio.Project{}, csrfToken)
		return nil
	})
}

func writeArticleForm(w io.Writer, a folio.Article, csrfToken string) {
	published := ""
	if a.Published {
		published = " checked"
	}
	fmt.Fprintf(w, `<form method="post" action="/admin/article/save/">`+
		`<input type="hidden" name="_csrf" value="%s">`+
		`<input type="hidden" name="slug" value="%s">`+
		`<label>Title <input name="title" value="%s"></label>`+
		`<label>Excerpt <input name="excerpt" value="%s"></label>`+
		`<label>Tags <input name="tags" value="%s"></label>`+
		`<label>Image URL <input name="image" value="%s"></label>`+
		`<label>Content <textarea name="content">%s</textarea></label>`+
		`<label><input type="checkbox" name="published"%s> Published</label>`+
		`<button type="submit">Save article</button></form>`,
		esc(csrfToken), esc(a.Slug), esc(a.Title), esc(a.Excerpt),
		esc(folio.JoinTags(a.Tags)), esc(a.Image), esc(a.Content), published)
}

func writeProjectForm(w io.Writer, p folio.Project, csrfToken string) {
	featured := ""
	if p.Featured {
		featured = " checked"
	}
	fmt.Fprintf(w, `<form method="post" action="/admin/project/save/">`+
		`<input type="hidden" name="_csrf" value="%s">`+
		`<input type="hidden" name="slug" value="%s">`+
		`<label>Title <input name="title" value="%s"></label>`+
		`<label>Description <input name="description" value="%s"></label>`+
		`<label>Repo URL <input name="repo_url" value="%s"></label>`+
		`<label>Demo URL <input name="demo_url" value="%s"></label>`+
		`<label>Image URL <input name="image" value="%s"></label>`+
		`<label>Content <textarea name="content">%s</textarea></label>`+
		`<label><input type="checkbox" name="featured"%s> Featured</label>`+
		`<button type="submit">Save project</button></form>`,
		esc(csrfToken), esc(p.Slug), esc(p.Title), esc(p.Description),
		esc(p.RepoURL), esc(p.DemoURL), esc(p.Image), esc(p.Content), featured)
}

func articleForm(cfg folio.SiteConfig, a folio.Article, csrfToken string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Edit article"}, func(w io.Writer) error {
		fmt.Fprintf(w, `<h1>Edit %s</h1>`, esc(a.Title))
		writeArticleForm(w, a, csrfToken)
		return nil
	})
}

func projectForm(cfg folio.SiteConfig, p folio.Project, csrfToken string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Edit project"}, func(w io.Writer) error {
		fmt.Fprintf(w, `<h1>Edit %s</h1>`, esc(p.Title))
		writeProjectForm(w, p, csrfToken)
		return nil
	})
}

func imageList(cfg folio.SiteConfig, images []folio.Image, csrfToken string) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Images"}, func(w io.Writer) error {
		fmt.Fprint(w, `<h1>Images</h1>`)
		fmt.Fprintf(w, `<form method="post" action="/admin/images/upload/" enctype="multipart/form-data">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<input type="file" name="image" accept="image/*">`+
			`<button type="submit">Upload</button></form><ul>`, esc(csrfToken))
		for _, img := range images {
			fmt.Fprintf(w, `<li><a href="%s">%s</a> <small>%dx%d, %d bytes</small></li>`,
				esc(img.URL), esc(img.Filename), img.Width, img.Height, img.Size)
		}
		fmt.Fprint(w, `</ul>`)
		return nil
	})
}

func messageList(cfg folio.SiteConfig, msgs []folio.ContactMessage) templ.Component {
	return layout(cfg, folio.PageMeta{Title: "Messages"}, func(w io.Writer) error {
		fmt.Fprint(w, `<h1>Messages</h1><ul>`)
		for _, m := range msgs {
			fmt.Fprintf(w, `<li><strong>%s</strong> &lt;%s&gt; <small>%s</small><p>%s</p></li>`,
				esc(m.Name), esc(m.Email), m.CreatedAt.Format("2006-01-02 15:04"), esc(m.Body))
		}
		fmt.Fprint(w, `</ul>`)
		return nil
	})
}
