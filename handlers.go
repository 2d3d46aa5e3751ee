package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	articles, err := a.Cache.ListArticles(ctx, tag)
	if err != nil {
		return err
	}
	projects, err := a.Cache.ListProjects(ctx)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(articles, projects, tag, tags, a.Config.URL))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About())
}

func (a *App) handleProjects(c echo.Context) error {
	projects, err := a.Cache.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Projects(projects))
}

func (a *App) handleProject(c echo.Context) error {
	p, err := a.Store.GetProject(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.Project(p, a.Config.URL))
}

// handleArticle serves a single blog article. The body comes straight from
// the store rather than the cache so the displayed counters are live.
func (a *App) handleArticle(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	article, err := a.Store.GetArticle(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	articles, err := a.Cache.ListArticles(ctx, "")
	if err != nil {
		return err
	}
	related := FilterRelatedArticles(article, articles)
	kv, err := a.guardKV(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Article(article, related, a.Guard.Liked(kv, slug), a.Config.URL))
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

// handleRobots generates robots.txt dynamically using the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

// --- JSON API ---

// handleArticleView records a page view. The dedup guard swallows repeats
// from the same browser inside the cooldown window; the response carries the
// current count either way.
func (a *App) handleArticleView(c echo.Context) error {
	return a.handleCounter(c, FieldViews)
}

// handleArticleLike records a like. Likes are permanent per browser; a
// repeated like returns the current count without an increment.
func (a *App) handleArticleLike(c echo.Context) error {
	return a.handleCounter(c, FieldLikes)
}

func (a *App) handleCounter(c echo.Context, field CounterField) error {
	if !a.apiLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "too many requests"})
	}
	ctx := c.Request().Context()
	slug := c.Param("slug")
	kv, err := a.guardKV(c)
	if err != nil {
		return err
	}

	incr := func() (int64, error) { return a.Counters.Increment(ctx, slug, field) }
	read := func() (int64, error) {
		views, likes, err := a.Counters.Read(ctx, slug)
		if field == FieldLikes {
			return likes, err
		}
		return views, err
	}

	var count int64
	if field == FieldLikes {
		count, _, err = a.Guard.RecordLike(kv, slug, incr, read)
	} else {
		count, _, err = a.Guard.RecordView(kv, slug, incr, read)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "article not found"})
		}
		a.log.Error().Err(err).Str("slug", slug).Str("field", string(field)).Msg("counter increment failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if err := kv.flush(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{string(field): count})
}

// CreateArticleRequest is the JSON body accepted by POST /articles.
type CreateArticleRequest struct {
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Image     string   `json:"image"`
	Published bool     `json:"published"`
}

func (a *App) handleArticleCreate(c echo.Context) error {
	var req CreateArticleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "content is required"})
	}
	article, err := a.Store.CreateArticle(c.Request().Context(), Article{
		Title:     strings.TrimSpace(req.Title),
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Tags:      FilterEmpty(req.Tags),
		Image:     req.Image,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, article)
}

// CreateProjectRequest is the JSON body accepted by POST /projects.
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	RepoURL     string `json:"repo_url"`
	DemoURL     string `json:"demo_url"`
	Image       string `json:"image"`
	Featured    bool   `json:"featured"`
}

func (a *App) handleProjectCreate(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}
	project, err := a.Store.CreateProject(c.Request().Context(), Project{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Content:     req.Content,
		RepoURL:     req.RepoURL,
		DemoURL:     req.DemoURL,
		Image:       req.Image,
		Featured:    req.Featured,
	})
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, project)
}
