package folio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_site.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestCreateAndGetArticle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.CreateArticle(ctx, Article{
		Title:     "Hello, World! 2025",
		Excerpt:   "A greeting",
		Content:   "# Hello\n\nFirst post.",
		Tags:      []string{"go", "web"},
		Published: true,
	})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}
	if created.Slug != "hello-world-2025" {
		t.Errorf("Slug = %q, want hello-world-2025", created.Slug)
	}
	if created.Views != 0 || created.Likes != 0 {
		t.Errorf("counters = %d/%d, want 0/0 at creation", created.Views, created.Likes)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps should be set at creation")
	}

	got, err := s.GetArticle(ctx, "hello-world-2025")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Title != "Hello, World! 2025" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Excerpt != "A greeting" {
		t.Errorf("Excerpt = %q", got.Excerpt)
	}
	if got.Link != "/blog/hello-world-2025" {
		t.Errorf("Link = %q", got.Link)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", got.Tags)
	}
}

func TestCreateArticleIgnoresInputCounters(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	created, err := s.CreateArticle(context.Background(), Article{
		Title:     "Counter Smuggling",
		Content:   "body",
		Views:     999,
		Likes:     42,
		Published: true,
	})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}
	if created.Views != 0 || created.Likes != 0 {
		t.Errorf("counters = %d/%d, want 0/0", created.Views, created.Likes)
	}
}

func TestSlugUniquenessOnInsert(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := s.CreateArticle(ctx, Article{Title: "Duplicate Title", Content: "a", Published: true})
	if err != nil {
		t.Fatalf("first CreateArticle failed: %v", err)
	}
	second, err := s.CreateArticle(ctx, Article{Title: "Duplicate Title", Content: "b", Published: true})
	if err != nil {
		t.Fatalf("second CreateArticle failed: %v", err)
	}

	if first.Slug == second.Slug {
		t.Fatalf("both articles got slug %q", first.Slug)
	}
	if first.Slug != "duplicate-title" {
		t.Errorf("first slug = %q, want duplicate-title", first.Slug)
	}
	if !strings.HasPrefix(second.Slug, "duplicate-title-") {
		t.Errorf("second slug = %q, want duplicate-title-<timestamp>", second.Slug)
	}
	if !slugFormat.MatchString(second.Slug) {
		t.Errorf("second slug %q does not match slug format", second.Slug)
	}
}

func TestCreateArticleEmptyTitle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	created, err := s.CreateArticle(context.Background(), Article{Title: "   ", Content: "x", Published: true})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}
	if !strings.HasPrefix(created.Slug, "untitled-") {
		t.Errorf("slug = %q, want untitled-<timestamp> fallback", created.Slug)
	}
	if !slugFormat.MatchString(created.Slug) {
		t.Errorf("fallback slug %q does not match slug format", created.Slug)
	}
}

func TestUpdateArticlePreservesSlugAndCounters(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.CreateArticle(ctx, Article{Title: "Original", Content: "v1", Published: true})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}
	if _, err := s.incrementAtomic(ctx, created.Slug, FieldViews); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	created.Title = "Renamed Completely"
	created.Content = "v2"
	if err := s.UpdateArticle(ctx, created); err != nil {
		t.Fatalf("UpdateArticle failed: %v", err)
	}

	got, err := s.GetArticle(ctx, created.Slug)
	if err != nil {
		t.Fatalf("GetArticle after update failed: %v", err)
	}
	if got.Title != "Renamed Completely" || got.Content != "v2" {
		t.Errorf("update not applied: %q / %q", got.Title, got.Content)
	}
	if got.Slug != "original" {
		t.Errorf("slug changed to %q after title edit", got.Slug)
	}
	if got.Views != 1 {
		t.Errorf("views = %d after content update, want 1", got.Views)
	}
}

func TestUpdateArticleUnknownSlug(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.UpdateArticle(context.Background(), Article{Slug: "nope", Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateArticle on unknown slug = %v, want ErrNotFound", err)
	}
}

func TestGetArticleFiltersDrafts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	draft, err := s.CreateArticle(ctx, Article{Title: "Draft", Content: "wip", Published: false})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	if _, err := s.GetArticle(ctx, draft.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetArticle for draft = %v, want ErrNotFound", err)
	}
	if _, err := s.GetArticleAny(ctx, draft.Slug); err != nil {
		t.Errorf("GetArticleAny for draft failed: %v", err)
	}
}

func TestListArticlesByTag(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.CreateArticle(ctx, Article{Title: "One", Content: "a", Tags: []string{"Go", "web"}, Published: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateArticle(ctx, Article{Title: "Two", Content: "b", Tags: []string{"rust"}, Published: true}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListArticles(ctx, "go")
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "One" {
		t.Errorf("ListArticles(go) = %v, want only One", got)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 3 {
		t.Errorf("ListTags = %v, want 3 tags", tags)
	}
}

func TestDeleteArticle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.CreateArticle(ctx, Article{Title: "Doomed", Content: "bye", Image: "/public/uploads/doomed.jpg", Published: true})
	if err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	deleted, err := s.DeleteArticle(ctx, created.Slug)
	if err != nil {
		t.Fatalf("DeleteArticle failed: %v", err)
	}
	if deleted.Image != "/public/uploads/doomed.jpg" {
		t.Errorf("deleted record image = %q", deleted.Image)
	}
	if _, err := s.GetArticleAny(ctx, created.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("article still present after delete: %v", err)
	}

	if _, err := s.DeleteArticle(ctx, created.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestProjectCRUD(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.CreateProject(ctx, Project{
		Title:       "Folio Engine",
		Description: "This site",
		Content:     "Built with Go.",
		RepoURL:     "https://example.com/repo",
		Featured:    true,
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if created.Slug != "folio-engine" {
		t.Errorf("Slug = %q", created.Slug)
	}
	if created.Link != "/projects/folio-engine" {
		t.Errorf("Link = %q", created.Link)
	}

	created.Description = "Still this site"
	if err := s.UpdateProject(ctx, created); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	got, err := s.GetProject(ctx, "folio-engine")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Description != "Still this site" {
		t.Errorf("Description = %q", got.Description)
	}
	if !got.Featured {
		t.Error("Featured should survive the round trip")
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("ListProjects = %d entries, want 1", len(projects))
	}

	if _, err := s.DeleteProject(ctx, "folio-engine"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := s.GetProject(ctx, "folio-engine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("project still present after delete: %v", err)
	}
}

func TestProjectAndArticleSlugsIndependent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, Article{Title: "Shared Name", Content: "x", Published: true})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.CreateProject(ctx, Project{Title: "Shared Name", Description: "y"})
	if err != nil {
		t.Fatal(err)
	}
	// Slug collections are per entity kind, so both keep the plain slug.
	if a.Slug != "shared-name" || p.Slug != "shared-name" {
		t.Errorf("slugs = %q / %q, want shared-name for both", a.Slug, p.Slug)
	}
}

func TestMessages(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	m, err := s.SaveMessage(ctx, ContactMessage{Name: "Ada", Email: "ada@example.com", Body: "Hi"})
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if m.ID == 0 {
		t.Error("message ID should be assigned")
	}

	msgs, err := s.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "Hi" {
		t.Errorf("ListMessages = %v", msgs)
	}
}

func TestImageMetadata(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	img := Image{Filename: "cat.jpg", OriginalName: "Cat.PNG", Width: 800, Height: 600, Size: 1234, URL: "/public/uploads/cat.jpg", UploadedAt: "2025-01-01T00:00:00Z"}
	if err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	images, err := s.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 1 || images[0].URL != "/public/uploads/cat.jpg" {
		t.Errorf("ListImages = %v", images)
	}

	if err := s.DeleteImage(ctx, "cat.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	images, _ = s.ListImages(ctx)
	if len(images) != 0 {
		t.Errorf("images remain after delete: %v", images)
	}
}
