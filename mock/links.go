package mock

import "github.com/fwojciec/siteingest"

var _ siteingest.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of siteingest.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string) ([]string, error)
	BaseURLFn      func(html string, pageURL string) string
}

func (e *LinkExtractor) ExtractLinks(html string) ([]string, error) {
	return e.ExtractLinksFn(html)
}

// BaseURL returns pageURL when BaseURLFn is not set.
func (e *LinkExtractor) BaseURL(html string, pageURL string) string {
	if e.BaseURLFn == nil {
		return pageURL
	}
	return e.BaseURLFn(html, pageURL)
}
