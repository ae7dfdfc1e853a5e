package siteingest

import "time"

// Result classifies how a single crawl task ended.
type Result int

// Task results. Skips are not errors; the URL is simply not processed further.
const (
	ResultPersisted Result = iota
	ResultOutOfScope
	ResultAlreadyVisited
	ResultNavigationTimeout
	ResultNavigationFailure
	ResultPersistenceFailure
)

// String returns a stable, lower-case label for logs and metrics.
func (r Result) String() string {
	switch r {
	case ResultPersisted:
		return "persisted"
	case ResultOutOfScope:
		return "out_of_scope"
	case ResultAlreadyVisited:
		return "already_visited"
	case ResultNavigationTimeout:
		return "navigation_timeout"
	case ResultNavigationFailure:
		return "navigation_failure"
	case ResultPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Outcome reports the result of one crawl task.
type Outcome struct {
	URL        string
	FinalURL   string
	Result     Result
	Err        error
	Discovered int // anchors found on the page
	Enqueued   int // in-scope links offered to the frontier
	Duration   time.Duration
}

// Observer receives task outcomes. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	OnOutcome(o Outcome)
}
