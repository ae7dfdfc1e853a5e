// Package http fetches pages with plain HTTP requests. It serves static
// sites that render without JavaScript; no screenshot is captured.
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/siteingest"
	"golang.org/x/net/html"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout = 12 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

// Compile-time interface verification.
var (
	_ siteingest.Fetcher  = (*Fetcher)(nil)
	_ siteingest.Launcher = (*Launcher)(nil)
)

// Launcher hands out Fetchers that share one connection pool.
type Launcher struct {
	Timeout   time.Duration
	UserAgent string
}

// Launch implements siteingest.Launcher.
func (l *Launcher) Launch(ctx context.Context) (siteingest.Fetcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := []Option{WithTimeout(l.Timeout)}
	if l.UserAgent != "" {
		opts = append(opts, WithUserAgent(l.UserAgent))
	}
	return NewFetcher(opts...), nil
}

// Fetcher retrieves pages using HTTP requests.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for one page, redirects included.
// Defaults to DefaultFetchTimeout if not positive.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch requests the URL, follows redirects, and captures the HTML
// document together with its title, visible text and image sources.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*siteingest.PageBundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, siteingest.Errorf(siteingest.ENAVIGATION, "invalid request for %s: %v", url, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, requestError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, siteingest.Errorf(siteingest.ENAVIGATION, "HTTP %d for %s", resp.StatusCode, url)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, siteingest.Errorf(siteingest.ENAVIGATION, "unsupported content type %q for %s", mediaType, url)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, requestError(url, err)
	}

	bundle := &siteingest.PageBundle{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		HTML:       string(body),
		CapturedAt: time.Now().UTC(),
	}
	if doc, err := html.Parse(strings.NewReader(bundle.HTML)); err == nil {
		scan(doc, bundle)
	}
	return bundle, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// requestError classifies a transport failure like a browser navigation
// failure.
func requestError(url string, err error) error {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return siteingest.Errorf(siteingest.ETIMEOUT, "requesting %s: timed out", url)
	default:
		return siteingest.Errorf(siteingest.ENAVIGATION, "requesting %s: %v", url, err)
	}
}

// scan fills Title, Text and Images from the parsed document.
func scan(doc *html.Node, bundle *siteingest.PageBundle) {
	var text []string
	seen := make(map[string]bool)

	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if bundle.Title == "" && n.FirstChild != nil {
					bundle.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "body":
				inBody = true
			case "img":
				if src, ok := siteingest.Normalize(attr(n, "src"), bundle.FinalURL); ok && !seen[src] {
					seen[src] = true
					bundle.Images = append(bundle.Images, src)
				}
			}
		}
		if n.Type == html.TextNode && inBody {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				text = append(text, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)

	bundle.Text = strings.Join(text, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
