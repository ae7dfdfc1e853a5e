// Package goquery implements link extraction from rendered HTML.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteingest"
)

// Ensure LinkExtractor implements siteingest.LinkExtractor at compile time.
var _ siteingest.LinkExtractor = (*LinkExtractor)(nil)

// DefaultLinkSelector matches every anchor that carries an href.
const DefaultLinkSelector = "a[href]"

// LinkExtractor extracts anchor targets with a CSS selector.
type LinkExtractor struct {
	// Selector picks the elements whose href attribute is returned.
	// Defaults to DefaultLinkSelector.
	Selector string
}

// NewLinkExtractor creates a LinkExtractor that returns every anchor href.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{Selector: DefaultLinkSelector}
}

// ExtractLinks returns the raw href values of matching elements in document
// order. Empty values are skipped; nothing else is filtered.
func (e *LinkExtractor) ExtractLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, siteingest.Errorf(siteingest.EINVALID, "failed to parse HTML: %v", err)
	}

	selector := e.Selector
	if selector == "" {
		selector = DefaultLinkSelector
	}

	var links []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			return
		}
		links = append(links, href)
	})
	return links, nil
}

// BaseURL returns the first <base href> of the document resolved against
// pageURL. It returns pageURL when the document has no usable base element.
func (e *LinkExtractor) BaseURL(html string, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pageURL
	}
	href, exists := doc.Find("base[href]").First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return pageURL
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return page.ResolveReference(ref).String()
}
