package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var (
	_ siteingest.ContentSink = (*PageStore)(nil)
	_ siteingest.PageService = (*PageStore)(nil)
)

// PageStore persists captured pages and reads them back.
type PageStore struct {
	db *DB
}

// NewPageStore creates a new PageStore.
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

// Persist inserts the bundle, or replaces the stored page with the same
// canonical URL. A replaced page keeps its ID.
func (s *PageStore) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	canonical := bundle.CanonicalURL()
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" {
		return siteingest.Errorf(siteingest.EINVALID, "invalid page URL: %q", canonical)
	}

	images := bundle.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	capturedAt := bundle.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	var screenshot any // NULL when nothing was captured
	if len(bundle.Screenshot) > 0 {
		screenshot = bundle.Screenshot
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (id, url, requested_url, host, title, html, text, markdown, images, screenshot, content_hash, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			requested_url = excluded.requested_url,
			title = excluded.title,
			html = excluded.html,
			text = excluded.text,
			markdown = excluded.markdown,
			images = excluded.images,
			screenshot = excluded.screenshot,
			content_hash = excluded.content_hash,
			captured_at = excluded.captured_at
	`, uuid.New().String(), canonical, bundle.URL, strings.ToLower(u.Hostname()),
		bundle.Title, bundle.HTML, bundle.Text, bundle.Markdown, string(imagesJSON),
		screenshot, hashContent(bundle.Text), capturedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing page %s: %w", canonical, err)
	}
	return nil
}

const pageColumns = "id, url, host, title, text, markdown, images, screenshot IS NOT NULL, content_hash, captured_at"

// FindPageByURL retrieves a page by its canonical URL.
func (s *PageStore) FindPageByURL(ctx context.Context, rawURL string) (*siteingest.Page, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+pageColumns+" FROM pages WHERE url = ?", rawURL)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, siteingest.Errorf(siteingest.ENOTFOUND, "page not found")
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// FindPages retrieves pages matching the filter, newest first.
func (s *PageStore) FindPages(ctx context.Context, filter siteingest.PageFilter) ([]*siteingest.Page, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + pageColumns + " FROM pages WHERE 1=1")
	appendFilter(&query, &args, filter)
	query.WriteString(" ORDER BY captured_at DESC, url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*siteingest.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// CountPages returns the number of pages matching the filter. Offset and
// limit are ignored.
func (s *PageStore) CountPages(ctx context.Context, filter siteingest.PageFilter) (int, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT COUNT(*) FROM pages WHERE 1=1")
	appendFilter(&query, &args, filter)

	var n int
	if err := s.db.QueryRowContext(ctx, query.String(), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Screenshot returns the stored screenshot of a page, or ENOTFOUND when the
// page does not exist or has none.
func (s *PageStore) Screenshot(ctx context.Context, rawURL string) ([]byte, error) {
	var shot []byte
	err := s.db.QueryRowContext(ctx, "SELECT screenshot FROM pages WHERE url = ?", rawURL).Scan(&shot)
	if err == sql.ErrNoRows || (err == nil && len(shot) == 0) {
		return nil, siteingest.Errorf(siteingest.ENOTFOUND, "screenshot not found")
	}
	if err != nil {
		return nil, err
	}
	return shot, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*siteingest.Page, error) {
	var page siteingest.Page
	var images, capturedAt string

	if err := row.Scan(&page.ID, &page.URL, &page.Host, &page.Title, &page.Text, &page.Markdown,
		&images, &page.HasScreenshot, &page.ContentHash, &capturedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(images), &page.Images); err != nil {
		return nil, fmt.Errorf("failed to parse images: %w", err)
	}

	var err error
	page.CapturedAt, err = parseTimestamp(capturedAt, "captured_at")
	if err != nil {
		return nil, err
	}
	return &page, nil
}
