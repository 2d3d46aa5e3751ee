package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const projectColumns = `slug, title, description, content, repo_url, demo_url, image, featured, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	var featured int
	var created, updated string
	err := row.Scan(&p.Slug, &p.Title, &p.Description, &p.Content, &p.RepoURL,
		&p.DemoURL, &p.Image, &featured, &created, &updated)
	if err != nil {
		return Project{}, err
	}
	p.Featured = featured == 1
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	p.Link = "/projects/" + p.Slug
	return p, nil
}

// CreateProject inserts a new project, computing its slug from the title.
func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	slug, err := s.uniqueSlug(ctx, "projects", p.Title)
	if err != nil {
		return Project{}, err
	}
	now := time.Now().UTC()
	p.Slug = slug
	p.CreatedAt, p.UpdatedAt = now, now
	p.Link = "/projects/" + slug
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Description, p.Content, p.RepoURL, p.DemoURL, p.Image,
		boolToInt(p.Featured), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return Project{}, fmt.Errorf("insert project %q: %w", slug, err)
	}
	return p, nil
}

// UpdateProject rewrites the content fields of an existing project; the slug
// is never reassigned.
func (s *Store) UpdateProject(ctx context.Context, p Project) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, content = ?, repo_url = ?, demo_url = ?, image = ?, featured = ?, updated_at = ? WHERE slug = ?`,
		p.Title, p.Description, p.Content, p.RepoURL, p.DemoURL, p.Image,
		boolToInt(p.Featured), now.Format(timeLayout), p.Slug)
	if err != nil {
		return fmt.Errorf("update project %q: %w", p.Slug, err)
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

// GetProject returns a single project by slug.
func (s *Store) GetProject(ctx context.Context, slug string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

// ListProjects returns all projects, featured first, newest first within each group.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY featured DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project by slug and returns the deleted record so
// the caller can clean up its stored image.
func (s *Store) DeleteProject(ctx context.Context, slug string) (Project, error) {
	p, err := s.GetProject(ctx, slug)
	if err != nil {
		return Project{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, slug); err != nil {
		return Project{}, fmt.Errorf("delete project %q: %w", slug, err)
	}
	return p, nil
}
