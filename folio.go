// Package folio is a personal portfolio and blog engine built with Go, Echo,
// and templ. It provides article and project CRUD, an admin dashboard,
// per-article view/like counters with per-browser dedup, image uploads, RSS,
// and a sitemap out of the box.
//
// Users provide their own templ components via the ViewFuncs struct (the
// views subpackage ships a default set), and folio handles the handler
// logic, middleware, and database operations.
package folio

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates.
type ViewFuncs struct {
	Home             func(articles []Article, projects []Project, activeTag string, tags []string, siteURL string) templ.Component
	About            func() templ.Component
	Projects         func(projects []Project) templ.Component
	Project          func(p Project, siteURL string) templ.Component
	Article          func(a Article, related []Article, liked bool, siteURL string) templ.Component
	Contact          func(sent bool, csrfToken string) templ.Component
	AdminDashboard   func(articles []Article, projects []Project, message string, csrfToken string) templ.Component
	AdminArticleForm func(a Article, csrfToken string) templ.Component
	AdminProjectForm func(p Project, csrfToken string) templ.Component
	AdminImages      func(images []Image, csrfToken string) templ.Component
	AdminMessages    func(msgs []ContactMessage, csrfToken string) templ.Component
	NotFound         func() templ.Component
	ServerError      func() templ.Component
}

// App is the central folio application. It wires together the store, cache,
// counters, dedup guard, object store, handlers, middleware, and
// user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *ContentCache
	Counters *Counters
	Guard    *Guard
	Objects  ObjectStore
	Views    ViewFuncs

	log          zerolog.Logger
	apiLimiter   *rateLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		log:       newLogger(cfg),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, counters, middleware, and routes,
// then starts the server. It blocks until the server stops.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewContentCache(store, a.Config.CacheTTL)
	a.Counters = NewCounters(store, a.log)
	a.Guard = NewGuard(a.Config.ViewCooldown)
	a.apiLimiter = newRateLimiter(30, time.Minute)
	if a.Objects == nil {
		a.Objects = NewDiskStore(a.staticDir, a.log)
	}

	if !store.SupportsAtomicIncrement() {
		a.log.Warn().Msg("store lacks atomic increment support, counters run in degraded read-modify-write mode")
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.log.Info().Str("addr", a.Config.Addr).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/projects/", a.handleProjects)
	e.GET("/projects/:slug/", a.handleProject)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/:slug/", a.handleArticle)
	e.GET("/contact/", a.handleContact)
	e.POST("/contact/", a.handleContactSubmit)

	// JSON API: record creation and engagement counters
	e.POST("/articles", a.handleArticleCreate)
	e.POST("/projects", a.handleProjectCreate)
	e.POST("/articles/:slug/view", a.handleArticleView)
	e.POST("/articles/:slug/like", a.handleArticleLike)

	// Admin dashboard for managing content
	e.GET("/admin/", a.handleAdmin)
	e.GET("/admin/article/:slug/", a.handleAdminArticle)
	e.POST("/admin/article/save/", a.handleAdminArticleSave)
	e.DELETE("/admin/article/:slug/", a.handleAdminArticleDelete)
	e.GET("/admin/project/:slug/", a.handleAdminProject)
	e.POST("/admin/project/save/", a.handleAdminProjectSave)
	e.DELETE("/admin/project/:slug/", a.handleAdminProjectDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)
	e.GET("/admin/messages/", a.handleMessages)
}

// Shutdown stops the HTTP server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Echo.Shutdown(ctx); err != nil {
		return err
	}
	return a.Close()
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
