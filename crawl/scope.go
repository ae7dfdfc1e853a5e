package crawl

import (
	"sync/atomic"

	"github.com/fwojciec/siteingest"
)

// Scope holds the allow-list for a running crawl. Updates replace the whole
// list at once, so readers never observe a partially applied rule set.
// Scope is safe for concurrent use.
type Scope struct {
	allow atomic.Pointer[siteingest.AllowList]
}

// NewScope creates a Scope from raw allow-list rules.
func NewScope(rules ...string) *Scope {
	s := &Scope{}
	s.Set(siteingest.ParseAllowList(rules...))
	return s
}

// Set replaces the allow-list.
func (s *Scope) Set(allow siteingest.AllowList) {
	s.allow.Store(&allow)
}

// Snapshot returns the current allow-list. Tasks take one snapshot and use
// it for every scope decision they make.
func (s *Scope) Snapshot() siteingest.AllowList {
	if allow := s.allow.Load(); allow != nil {
		return *allow
	}
	return siteingest.AllowList{}
}
