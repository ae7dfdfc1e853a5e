package siteingest

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown. Relative links and
	// image sources are made absolute against pageURL when it is set.
	Convert(html, pageURL string) (string, error)
}
