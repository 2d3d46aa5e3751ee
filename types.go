package folio

import "time"

// Article is a blog post stored in SQLite and rendered by templates.
// Views and Likes are engagement counters mutated only through the
// Counters service; everything else is mutated by admin edits.
type Article struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Image     string    `json:"image,omitempty"`
	Published bool      `json:"published"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Link      string    `json:"link"`
}

// Project is a portfolio entry.
type Project struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	RepoURL     string    `json:"repo_url,omitempty"`
	DemoURL     string    `json:"demo_url,omitempty"`
	Image       string    `json:"image,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Link        string    `json:"link"`
}

// Image is stored upload metadata. The file itself lives in the ObjectStore;
// URL is the public address returned by the store at upload time.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	URL          string `json:"url"`
	UploadedAt   string `json:"uploaded_at"`
}

// ContactMessage is a note left through the public contact form.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
