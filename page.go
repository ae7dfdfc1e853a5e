package siteingest

import (
	"context"
	"time"
)

// Page is a stored page as read back from a page store.
type Page struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Host          string    `json:"host"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	Markdown      string    `json:"markdown"`
	Images        []string  `json:"images"`
	ContentHash   string    `json:"contentHash"`
	HasScreenshot bool      `json:"hasScreenshot"`
	CapturedAt    time.Time `json:"capturedAt"`
}

// PageService represents read access to stored pages.
type PageService interface {
	// FindPageByURL retrieves a page by its canonical URL.
	// Returns ENOTFOUND if the page does not exist.
	FindPageByURL(ctx context.Context, url string) (*Page, error)

	// FindPages retrieves pages matching the filter, newest first.
	FindPages(ctx context.Context, filter PageFilter) ([]*Page, error)

	// CountPages returns the number of pages matching the filter.
	CountPages(ctx context.Context, filter PageFilter) (int, error)

	// Screenshot returns the PNG captured for a page.
	// Returns ENOTFOUND if the page does not exist or has no screenshot.
	Screenshot(ctx context.Context, url string) ([]byte, error)
}

// PageFilter represents a filter for FindPages.
type PageFilter struct {
	Host *string `json:"host"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
