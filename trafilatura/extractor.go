// Package trafilatura extracts the main content of captured pages with
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/siteingest"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements siteingest.Extractor at compile time.
var _ siteingest.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	// Fallback is consulted when trafilatura fails or finds no main
	// content. Optional.
	Fallback siteingest.Extractor

	// IncludeImages keeps img elements in the extracted content.
	IncludeImages bool
}

// NewExtractor creates a new Extractor with no fallback.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML, pageURL string) (*siteingest.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteingest.Errorf(siteingest.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
		IncludeImages:  e.IncludeImages,
		IncludeLinks:   true,
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return e.fallback(rawHTML, pageURL, err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}
	if contentHTML == "" && e.Fallback != nil {
		fb, err := e.Fallback.Extract(rawHTML, pageURL)
		if err == nil {
			if fb.Title == "" {
				fb.Title = result.Metadata.Title
			}
			return fb, nil
		}
	}

	return &siteingest.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

func (e *Extractor) fallback(rawHTML, pageURL string, cause error) (*siteingest.ExtractResult, error) {
	if e.Fallback == nil {
		return nil, cause
	}
	return e.Fallback.Extract(rawHTML, pageURL)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
