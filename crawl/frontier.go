package crawl

import (
	"sync"

	"github.com/fwojciec/siteingest"
)

// Compile-time interface verification.
var _ siteingest.URLFrontier = (*Frontier)(nil)

// entryState tracks where a URL is in its lifecycle. A URL only moves
// forward: queued -> claimed -> visited, possibly skipping steps.
type entryState uint8

const (
	stateQueued entryState = iota + 1
	stateClaimed
	stateVisited
)

// compactThreshold is the number of consumed queue slots that triggers
// reclaiming the front of the queue slice.
const compactThreshold = 1024

// Frontier is an in-memory FIFO URL frontier with exact deduplication.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu     sync.Mutex
	states map[string]entryState
	queue  []string
	head   int

	queued  int
	claimed int
	visited int
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		states: make(map[string]entryState),
	}
}

// Enqueue adds a URL to the back of the queue.
// URLs that were ever queued, claimed or visited are ignored and Enqueue
// returns false.
func (f *Frontier) Enqueue(url string) bool {
	if url == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.states[url]; ok {
		return false
	}
	f.states[url] = stateQueued
	f.queue = append(f.queue, url)
	f.queued++
	return true
}

// TryClaim pops the oldest queued URL and marks it claimed.
// Queue slots whose URL was claimed or visited through another path are skipped.
func (f *Frontier) TryClaim() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	defer f.compact()
	for f.head < len(f.queue) {
		url := f.queue[f.head]
		f.queue[f.head] = ""
		f.head++

		if f.states[url] != stateQueued {
			continue
		}
		f.states[url] = stateClaimed
		f.queued--
		f.claimed++
		return url, true
	}
	return "", false
}

// Claim marks a URL claimed if nobody claimed or visited it before.
// A queued URL may be claimed directly; its queue slot is then skipped.
func (f *Frontier) Claim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.states[url] {
	case stateClaimed, stateVisited:
		return false
	case stateQueued:
		f.queued--
	}
	f.states[url] = stateClaimed
	f.claimed++
	return true
}

// MarkVisited records that a URL was processed. Calling it more than once,
// or for a URL that was never claimed, is allowed.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.states[url] {
	case stateVisited:
		return
	case stateQueued:
		f.queued--
	case stateClaimed:
		f.claimed--
	}
	f.states[url] = stateVisited
	f.visited++
}

// Len returns the number of claimable URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued
}

// Visited returns true if the URL has been claimed or visited.
func (f *Frontier) Visited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := f.states[url]
	return state == stateClaimed || state == stateVisited
}

// Stats returns a snapshot of entry counts by state.
func (f *Frontier) Stats() siteingest.FrontierStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return siteingest.FrontierStats{
		Queued:  f.queued,
		Claimed: f.claimed,
		Visited: f.visited,
	}
}

// compact releases consumed queue slots. Must be called with mu held.
func (f *Frontier) compact() {
	if f.head == len(f.queue) {
		f.queue = f.queue[:0]
		f.head = 0
		return
	}
	if f.head >= compactThreshold && f.head*2 >= len(f.queue) {
		n := copy(f.queue, f.queue[f.head:])
		clear(f.queue[n:])
		f.queue = f.queue[:n]
		f.head = 0
	}
}
