package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("folio: not found")

// Store wraps a SQLite database and provides CRUD operations for articles,
// projects, uploaded image metadata, and contact messages.
type Store struct {
	db *sql.DB

	// atomicIncrement records whether the engine supports
	// UPDATE ... RETURNING, probed once at open. When false the Counters
	// service uses the read-modify-write fallback.
	atomicIncrement bool
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	s.probeAtomicIncrement()
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    tags TEXT NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1,
    views INTEGER NOT NULL DEFAULT 0,
    likes INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    content TEXT NOT NULL,
    repo_url TEXT NOT NULL DEFAULT '',
    demo_url TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    featured INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    url TEXT NOT NULL DEFAULT '',
    uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`)
	return err
}

// probeAtomicIncrement checks once whether the engine accepts
// UPDATE ... RETURNING. The result is a typed capability flag; callers never
// inspect error text to decide which increment path to take.
func (s *Store) probeAtomicIncrement() {
	stmt, err := s.db.Prepare(`UPDATE articles SET views = views WHERE slug = '' RETURNING views`)
	if err != nil {
		s.atomicIncrement = false
		return
	}
	stmt.Close()
	s.atomicIncrement = true
}

// SupportsAtomicIncrement reports whether counter increments can use the
// single-statement atomic path.
func (s *Store) SupportsAtomicIncrement() bool {
	return s.atomicIncrement
}

// uniqueSlug derives a slug for title and resolves collisions against the
// given table. Existing slugs matching the candidate exactly or as a
// "candidate-" prefix force a timestamp suffix. The check is best-effort and
// non-transactional; the PRIMARY KEY on slug backstops the residual race.
func (s *Store) uniqueSlug(ctx context.Context, table, title string) (string, error) {
	candidate := Slugify(title)
	if candidate == "" {
		return FallbackSlug(time.Now()), nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE slug = ? OR slug LIKE ? || '-%'`,
		candidate, candidate).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", candidate, err)
	}
	if n > 0 {
		candidate = DisambiguateSlug(candidate, time.Now())
	}
	return candidate, nil
}

const timeLayout = time.RFC3339

func scanArticle(row interface{ Scan(...any) error }) (Article, error) {
	var a Article
	var tags, created, updated string
	var published int
	err := row.Scan(&a.Slug, &a.Title, &a.Excerpt, &a.Content, &tags, &a.Image,
		&published, &a.Views, &a.Likes, &created, &updated)
	if err != nil {
		return Article{}, err
	}
	a.Tags = ParseTags(tags)
	a.Published = published == 1
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	a.UpdatedAt, _ = time.Parse(timeLayout, updated)
	a.Link = "/blog/" + a.Slug
	return a, nil
}

const articleColumns = `slug, title, excerpt, content, tags, image, published, views, likes, created_at, updated_at`

// CreateArticle inserts a new article. The slug is computed here, once, from
// the title; counters start at zero regardless of the input.
func (s *Store) CreateArticle(ctx context.Context, a Article) (Article, error) {
	slug, err := s.uniqueSlug(ctx, "articles", a.Title)
	if err != nil {
		return Article{}, err
	}
	now := time.Now().UTC()
	a.Slug = slug
	a.Views, a.Likes = 0, 0
	a.CreatedAt, a.UpdatedAt = now, now
	a.Link = "/blog/" + slug
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		a.Slug, a.Title, a.Excerpt, a.Content, joinTags(a.Tags), a.Image,
		boolToInt(a.Published), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return Article{}, fmt.Errorf("insert article %q: %w", slug, err)
	}
	return a, nil
}

// UpdateArticle rewrites the content fields of an existing article. The slug
// is the identity and is never reassigned; counters are left untouched.
func (s *Store) UpdateArticle(ctx context.Context, a Article) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET title = ?, excerpt = ?, content = ?, tags = ?, image = ?, published = ?, updated_at = ? WHERE slug = ?`,
		a.Title, a.Excerpt, a.Content, joinTags(a.Tags), a.Image,
		boolToInt(a.Published), now.Format(timeLayout), a.Slug)
	if err != nil {
		return fmt.Errorf("update article %q: %w", a.Slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetArticle returns a single published article by slug.
func (s *Store) GetArticle(ctx context.Context, slug string) (Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = ? AND published = 1`, slug)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	return a, err
}

// GetArticleAny returns an article by slug regardless of published status (for admin).
func (s *Store) GetArticleAny(ctx context.Context, slug string) (Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	return a, err
}

// ListArticles returns all published articles ordered by creation date
// descending. If tag is non-empty, results are filtered to articles carrying
// that tag.
func (s *Store) ListArticles(ctx context.Context, tag string) ([]Article, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+articleColumns+` FROM articles WHERE published = 1 ORDER BY created_at DESC`)
	} else {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+articleColumns+` FROM articles WHERE published = 1 AND instr(lower(tags), ',' || ? || ',') > 0 ORDER BY created_at DESC`,
			normalized)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// ListAllArticles returns every article (published and drafts) ordered by
// creation date descending.
func (s *Store) ListAllArticles(ctx context.Context) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all tags from published articles.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM articles WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// DeleteArticle removes an article by slug and returns the deleted record so
// the caller can clean up its stored image.
func (s *Store) DeleteArticle(ctx context.Context, slug string) (Article, error) {
	a, err := s.GetArticleAny(ctx, slug)
	if err != nil {
		return Article{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE slug = ?`, slug); err != nil {
		return Article{}, fmt.Errorf("delete article %q: %w", slug, err)
	}
	return a, nil
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// joinTags stores tags as ",a,b," so a single instr() matches whole tags.
func joinTags(tags []string) string {
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return "," + strings.Join(normalized, ",") + ","
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
