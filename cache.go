package folio

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ContentCache is an in-memory cache of published articles, projects, and
// tags with TTL. Counter reads deliberately bypass it so view/like numbers
// stay live while page bodies are served from memory.
type ContentCache struct {
	mu       sync.RWMutex
	articles []Article
	projects []Project
	tags     []string
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return !c.fetched.IsZero() && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.articles = nil
	c.projects = nil
	c.tags = nil
	c.fetched = time.Time{}
	c.mu.Unlock()
}

func (c *ContentCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	articles, err := c.store.ListArticles(ctx, "")
	if err != nil {
		return err
	}
	projects, err := c.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	c.articles = articles
	c.projects = projects
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached content after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ContentCache) ensureLoaded(ctx context.Context) ([]Article, []Project, []string, error) {
	c.mu.RLock()
	if c.valid() {
		articles, projects, tags := c.articles, c.projects, c.tags
		c.mu.RUnlock()
		return articles, projects, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, nil, err
	}
	return c.articles, c.projects, c.tags, nil
}

// ListArticles returns published articles, optionally filtered by tag.
func (c *ContentCache) ListArticles(ctx context.Context, tag string) ([]Article, error) {
	articles, _, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return articles, nil
	}
	normalized := normalizeTag(tag)
	var filtered []Article
	for _, a := range articles {
		for _, t := range a.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, a)
				break
			}
		}
	}
	return filtered, nil
}

// ListProjects returns all projects.
func (c *ContentCache) ListProjects(ctx context.Context) ([]Project, error) {
	_, projects, _, err := c.ensureLoaded(ctx)
	return projects, err
}

// ListTags returns all unique tags from published articles.
func (c *ContentCache) ListTags(ctx context.Context) ([]string, error) {
	_, _, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
