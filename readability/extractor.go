// Package readability extracts main page content with go-readability. It
// serves as the fallback when trafilatura finds nothing.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/siteingest"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements siteingest.Extractor at compile time.
var _ siteingest.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Relative links
// and image sources in the content are made absolute against pageURL.
func (e *Extractor) Extract(rawHTML, pageURL string) (*siteingest.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteingest.Errorf(siteingest.EINVALID, "empty HTML input")
	}

	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, err
	}

	return &siteingest.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
