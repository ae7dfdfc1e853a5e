package siteingest

import "context"

// Fetcher drives a shared browser session. Each Fetch borrows a fresh page
// from the session for exactly one URL and releases it before returning.
type Fetcher interface {
	// Fetch navigates to the URL, waits for the network to settle, and
	// captures the rendered page. Navigation failures return an error with
	// code ETIMEOUT or ENAVIGATION.
	Fetch(ctx context.Context, url string) (*PageBundle, error)

	// Close releases the browser session.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Launcher acquires the shared browser session for a crawl run.
type Launcher interface {
	Launch(ctx context.Context) (Fetcher, error)
}
