package siteingest

import "context"

// URLFrontier is the queue of URLs pending a visit together with the set of
// URLs already claimed. Every operation is atomic; a URL is handed out by
// TryClaim or Claim at most once for the lifetime of the frontier.
type URLFrontier interface {
	// Enqueue adds a normalized URL unless it is already queued or claimed.
	// Returns true if the URL was added.
	Enqueue(url string) bool

	// TryClaim removes the next queued URL and marks it claimed.
	// Returns false if nothing is claimable right now.
	TryClaim() (string, bool)

	// Claim marks a specific URL claimed. Returns false if another caller
	// already claimed or visited it.
	Claim(url string) bool

	// MarkVisited records that processing of a claimed URL finished.
	// It is idempotent and applies regardless of the visit's outcome.
	MarkVisited(url string)

	// Len returns the number of claimable URLs.
	Len() int

	// Visited returns true if the URL has been claimed or visited.
	Visited(url string) bool
}

// FrontierStats is a point-in-time count of frontier entries by state.
type FrontierStats struct {
	Queued  int
	Claimed int
	Visited int
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
