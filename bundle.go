package siteingest

import (
	"context"
	"time"
)

// PageBundle holds the artifacts captured from one successful page visit.
type PageBundle struct {
	// URL is the URL that was claimed from the frontier.
	URL string `json:"url"`

	// FinalURL is the post-navigation URL. It is the canonical identity of
	// the visit and differs from URL when the page redirected.
	FinalURL string `json:"finalUrl"`

	HTML       string    `json:"-"`
	Text       string    `json:"-"`
	Images     []string  `json:"images"`
	Screenshot []byte    `json:"-"`
	CapturedAt time.Time `json:"capturedAt"`

	// Title is the document title when the fetcher reports one; an
	// ingestion step may fill it otherwise. Markdown is empty unless an
	// ingestion step ran.
	Title    string `json:"title,omitempty"`
	Markdown string `json:"-"`
}

// CanonicalURL returns FinalURL, falling back to URL when no final URL was recorded.
func (b *PageBundle) CanonicalURL() string {
	if b.FinalURL != "" {
		return b.FinalURL
	}
	return b.URL
}

// Validate returns an error if the bundle cannot be persisted.
func (b *PageBundle) Validate() error {
	if b.CanonicalURL() == "" {
		return Errorf(EINVALID, "page bundle URL required")
	}
	return nil
}

// ContentSink persists captured page bundles.
// Implementations must be safe for concurrent use by multiple goroutines.
type ContentSink interface {
	Persist(ctx context.Context, bundle *PageBundle) error
}
