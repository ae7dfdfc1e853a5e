package siteingest

// LinkExtractor pulls raw anchor targets out of rendered HTML.
type LinkExtractor interface {
	// ExtractLinks returns the href value of every anchor in document order.
	// Values are returned unfiltered; callers normalize and scope them.
	ExtractLinks(html string) ([]string, error)

	// BaseURL returns the URL relative links resolve against: the document's
	// <base href> resolved against pageURL, or pageURL when none is declared.
	BaseURL(html string, pageURL string) string
}
