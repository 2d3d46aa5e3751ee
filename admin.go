package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// The admin surface has no authentication: the site is operated by a single
// person and is expected to sit behind whatever access control the hosting
// environment provides.

func (a *App) handleAdmin(c echo.Context) error {
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminArticle(c echo.Context) error {
	article, err := a.Store.GetArticleAny(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.AdminArticleForm(article, CsrfToken(c)))
}

// handleAdminArticleSave creates or updates an article from the dashboard
// form. A submission without a slug is a creation: the slug is derived from
// the title once, here, and never changes afterwards.
func (a *App) handleAdminArticleSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	ctx := c.Request().Context()
	article := Article{
		Slug:      strings.TrimSpace(c.FormValue("slug")),
		Title:     strings.TrimSpace(c.FormValue("title")),
		Excerpt:   c.FormValue("excerpt"),
		Content:   c.FormValue("content"),
		Tags:      FilterEmpty(strings.Split(c.FormValue("tags"), ",")),
		Image:     strings.TrimSpace(c.FormValue("image")),
		Published: c.FormValue("published") != "",
	}

	var err error
	if article.Slug == "" {
		_, err = a.Store.CreateArticle(ctx, article)
	} else {
		err = a.Store.UpdateArticle(ctx, article)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/admin/?msg=Unknown+article+slug.")
		}
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminArticleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := a.Store.DeleteArticle(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	a.deleteAssociatedImage(ctx, article.Image)
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) handleAdminProject(c echo.Context) error {
	project, err := a.Store.GetProject(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.AdminProjectForm(project, CsrfToken(c)))
}

func (a *App) handleAdminProjectSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	ctx := c.Request().Context()
	project := Project{
		Slug:        strings.TrimSpace(c.FormValue("slug")),
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: c.FormValue("description"),
		Content:     c.FormValue("content"),
		RepoURL:     strings.TrimSpace(c.FormValue("repo_url")),
		DemoURL:     strings.TrimSpace(c.FormValue("demo_url")),
		Image:       strings.TrimSpace(c.FormValue("image")),
		Featured:    c.FormValue("featured") != "",
	}

	var err error
	if project.Slug == "" {
		_, err = a.Store.CreateProject(ctx, project)
	} else {
		err = a.Store.UpdateProject(ctx, project)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/admin/?msg=Unknown+project+slug.")
		}
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminProjectDelete(c echo.Context) error {
	ctx := c.Request().Context()
	project, err := a.Store.DeleteProject(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	a.deleteAssociatedImage(ctx, project.Image)
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	articles, err := a.Store.ListAllArticles(ctx)
	if err != nil {
		return err
	}
	projects, err := a.Store.ListProjects(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(articles, projects, msg, CsrfToken(c)))
}
