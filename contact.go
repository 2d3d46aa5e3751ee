package folio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SaveMessage stores a contact form submission.
func (s *Store) SaveMessage(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	now := time.Now().UTC()
	m.CreatedAt = now
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (name, email, body, created_at) VALUES (?, ?, ?, ?)`,
		m.Name, m.Email, m.Body, now.Format(timeLayout))
	if err != nil {
		return ContactMessage{}, fmt.Errorf("insert message: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return ContactMessage{}, err
	}
	return m, nil
}

// ListMessages returns all contact messages, newest first.
func (s *Store) ListMessages(ctx context.Context) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, body, created_at FROM messages ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ContactMessage
	for rows.Next() {
		var m ContactMessage
		var created string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &created); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(timeLayout, created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(false, CsrfToken(c)))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	body := strings.TrimSpace(c.FormValue("message"))
	if body == "" {
		return c.Redirect(http.StatusSeeOther, "/contact/")
	}
	if _, err := a.Store.SaveMessage(c.Request().Context(), ContactMessage{
		Name:  name,
		Email: email,
		Body:  body,
	}); err != nil {
		return err
	}
	return Render(c, a.Views.Contact(true, CsrfToken(c)))
}

func (a *App) handleMessages(c echo.Context) error {
	msgs, err := a.Store.ListMessages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminMessages(msgs, CsrfToken(c)))
}
