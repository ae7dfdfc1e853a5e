package mock

import "github.com/fwojciec/siteingest"

var _ siteingest.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of siteingest.Extractor.
type Extractor struct {
	ExtractFn func(html, pageURL string) (*siteingest.ExtractResult, error)
}

func (e *Extractor) Extract(html, pageURL string) (*siteingest.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}
