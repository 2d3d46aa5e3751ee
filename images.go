package folio

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// ObjectStore persists uploaded files under a generated key and serves them
// at a public URL. Deletion is best-effort: callers log failures instead of
// propagating them.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// DiskStore is the default ObjectStore: files live under <root>/uploads and
// are served by the static file route at /public/uploads/.
type DiskStore struct {
	root string
	log  zerolog.Logger
}

// NewDiskStore creates a DiskStore rooted at the static asset directory.
func NewDiskStore(root string, log zerolog.Logger) *DiskStore {
	return &DiskStore{root: root, log: log}
}

// Put writes data under the uploads directory and returns the public URL.
func (d *DiskStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	dir := filepath.Join(d.root, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload %q: %w", key, err)
	}
	return "/public/" + uploadsSubdir + "/" + key, nil
}

// Delete removes the stored file. A missing file is not an error.
func (d *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(d.root, uploadsSubdir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// exists reports whether a file with that key is already stored.
func (d *DiskStore) exists(key string) bool {
	_, err := os.Stat(filepath.Join(d.root, uploadsSubdir, key))
	return err == nil
}

// processImage decodes an image from src, optionally resizes it to
// maxImageWidth, and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Resize if wider than max
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	filename := slugifyFilename(originalName) + ".jpg"

	return Image{
		Filename:     filename,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	slug := Slugify(base)
	if slug == "" {
		slug = FallbackSlug(time.Now())
	}
	return slug
}

// ensureUniqueFilename appends a counter if the filename already exists in
// the object store or the metadata table.
func (a *App) ensureUniqueFilename(ctx context.Context, img *Image) error {
	base := strings.TrimSuffix(img.Filename, ".jpg")
	candidate := img.Filename
	counter := 1
	for {
		taken := false
		if ds, ok := a.Objects.(*DiskStore); ok && ds.exists(candidate) {
			taken = true
		}
		if !taken {
			existing, err := a.Store.ListImages(ctx)
			if err != nil {
				return err
			}
			for _, ex := range existing {
				if ex.Filename == candidate {
					taken = true
					break
				}
			}
		}
		if !taken {
			break
		}
		counter++
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	img.Filename = candidate
	return nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	ctx := c.Request().Context()
	if err := a.ensureUniqueFilename(ctx, &img); err != nil {
		return err
	}

	url, err := a.Objects.Put(ctx, img.Filename, data, "image/jpeg")
	if err != nil {
		return err
	}
	img.URL = url

	if err := a.Store.SaveImage(ctx, img); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := c.Param("filename")
	if filename == "" {
		return c.String(http.StatusBadRequest, "Filename required")
	}

	ctx := c.Request().Context()
	if err := a.Objects.Delete(ctx, filename); err != nil {
		a.log.Warn().Err(err).Str("filename", filename).Msg("object delete failed")
	}
	if err := a.Store.DeleteImage(ctx, filename); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(images, CsrfToken(c)))
}

// deleteAssociatedImage best-effort removes the stored image referenced by a
// deleted record. External URLs and empty references are ignored; failures
// are logged, never propagated.
func (a *App) deleteAssociatedImage(ctx context.Context, imageURL string) {
	if imageURL == "" || !strings.HasPrefix(imageURL, "/public/"+uploadsSubdir+"/") {
		return
	}
	filename := path.Base(imageURL)
	if err := a.Objects.Delete(ctx, filename); err != nil {
		a.log.Warn().Err(err).Str("filename", filename).Msg("associated image delete failed")
	}
	if err := a.Store.DeleteImage(ctx, filename); err != nil && !errors.Is(err, sql.ErrNoRows) {
		a.log.Warn().Err(err).Str("filename", filename).Msg("image metadata delete failed")
	}
}

// SaveImage stores metadata for an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, url, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.URL, img.UploadedAt)
	return err
}

// ListImages returns metadata for all uploads, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, original_name, width, height, size, url, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.URL, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes upload metadata by filename.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
