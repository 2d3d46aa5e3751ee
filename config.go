package folio

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME" envDefault:"Portfolio"` // Site name
	URL         string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Author name for JSON-LD

	Addr         string `env:"ADDR" envDefault:":3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/site.db"`

	SessionSecret string `env:"SESSION_SECRET"` // Required: cookie session encryption secret
	CookieSecure  bool   `env:"COOKIE_SECURE"`  // Set true for HTTPS

	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`     // Content cache TTL
	ViewCooldown time.Duration `env:"VIEW_COOLDOWN" envDefault:"1h"` // Per-browser view dedup window

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"` // "console" or "json"
}

// LoadConfig builds a SiteConfig from the environment, reading an optional
// .env file first. A missing .env is not an error.
func LoadConfig() (SiteConfig, error) {
	_ = godotenv.Load()
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("folio: parse config: %w", err)
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	return cfg, nil
}

// setDefaults fills zero values for configs constructed in code rather than
// through LoadConfig.
func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.ViewCooldown == 0 {
		c.ViewCooldown = time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

func newLogger(cfg SiteConfig) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.LogFormat, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithObjectStore replaces the default disk-backed upload store.
func WithObjectStore(os ObjectStore) Option {
	return func(a *App) {
		a.Objects = os
	}
}

// WithLogger replaces the logger built from SiteConfig.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}
