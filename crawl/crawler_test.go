package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/fwojciec/siteingest/crawl"
	"github.com/fwojciec/siteingest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageSite serves fixed HTML per URL and returns the links listed for it.
type pageSite struct {
	mu    sync.Mutex
	pages map[string][]string
	calls []string
}

func (s *pageSite) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*siteingest.PageBundle, error) {
			s.mu.Lock()
			s.calls = append(s.calls, url)
			s.mu.Unlock()
			return &siteingest.PageBundle{URL: url, FinalURL: url, HTML: url}, nil
		},
		CloseFn: func() error { return nil },
	}
}

func (s *pageSite) links() *mock.LinkExtractor {
	return &mock.LinkExtractor{
		ExtractLinksFn: func(html string) ([]string, error) {
			return s.pages[html], nil
		},
	}
}

func (s *pageSite) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func nopSink() *mock.ContentSink {
	return &mock.ContentSink{
		PersistFn: func(context.Context, *siteingest.PageBundle) error { return nil },
	}
}

func newCrawler(frontier *crawl.Frontier, fetcher siteingest.Fetcher, links siteingest.LinkExtractor, sink siteingest.ContentSink, allowed ...string) *crawl.Crawler {
	return &crawl.Crawler{
		Frontier:    frontier,
		Fetcher:     fetcher,
		Links:       links,
		Sink:        sink,
		Scope:       crawl.NewScope(allowed...),
		Concurrency: 4,
	}
}

func TestCrawler_Pass_enqueues_only_in_scope_links(t *testing.T) {
	t.Parallel()

	site := &pageSite{pages: map[string][]string{
		"http://x.com": {"http://x.com/a", "http://y.com/b", "javascript:foo()"},
	}}
	frontier := crawl.NewFrontier()
	frontier.Enqueue("http://x.com")
	c := newCrawler(frontier, site.fetcher(), site.links(), nopSink(), "x.com")

	n := c.Pass(context.Background())

	assert.Equal(t, 1, n)
	assert.True(t, frontier.Visited("http://x.com"))
	assert.Equal(t, 1, frontier.Len())
	got, ok := frontier.TryClaim()
	require.True(t, ok)
	assert.Equal(t, "http://x.com/a", got)
	assert.False(t, frontier.Visited("http://y.com/b"))
}

func TestCrawler_Pass_defers_links_discovered_during_the_pass(t *testing.T) {
	t.Parallel()

	site := &pageSite{pages: map[string][]string{
		"https://example.com/":    {"/one"},
		"https://example.com/one": {"/two"},
	}}
	frontier := crawl.NewFrontier()
	frontier.Enqueue("https://example.com/")
	c := newCrawler(frontier, site.fetcher(), site.links(), nopSink(), "example.com")

	assert.Equal(t, 1, c.Pass(context.Background()))
	assert.Equal(t, []string{"https://example.com/"}, site.fetched())

	assert.Equal(t, 1, c.Pass(context.Background()))
	assert.Equal(t, 1, c.Pass(context.Background()))
	assert.Equal(t, 0, c.Pass(context.Background()))
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/one",
		"https://example.com/two",
	}, site.fetched())
}

func TestCrawler_Pass_visits_each_page_once_on_cyclic_links(t *testing.T) {
	t.Parallel()

	site := &pageSite{pages: map[string][]string{
		"https://example.com/a": {"/b", "/a", "#top"},
		"https://example.com/b": {"/a", "https://EXAMPLE.com/b#frag"},
	}}
	frontier := crawl.NewFrontier()
	frontier.Enqueue("https://example.com/a")
	c := newCrawler(frontier, site.fetcher(), site.links(), nopSink(), "example.com")

	for c.Pass(context.Background()) > 0 {
	}

	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, site.fetched())
}

func TestCrawler_Pass_respects_concurrency_limit(t *testing.T) {
	t.Parallel()

	const limit = 3
	var inFlight, peak atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*siteingest.PageBundle, error) {
			cur := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return &siteingest.PageBundle{URL: url, FinalURL: url}, nil
		},
	}
	links := &mock.LinkExtractor{
		ExtractLinksFn: func(string) ([]string, error) { return nil, nil },
	}

	frontier := crawl.NewFrontier()
	for i := range 12 {
		frontier.Enqueue(fmt.Sprintf("https://example.com/%d", i))
	}
	c := newCrawler(frontier, fetcher, links, nopSink(), "example.com")
	c.Concurrency = limit

	n := c.Pass(context.Background())

	assert.Equal(t, 12, n)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, 12, frontier.Stats().Visited)
}

func TestCrawler_Pass_stops_claiming_when_canceled(t *testing.T) {
	t.Parallel()

	site := &pageSite{pages: map[string][]string{}}
	frontier := crawl.NewFrontier()
	frontier.Enqueue("https://example.com/a")
	frontier.Enqueue("https://example.com/b")
	c := newCrawler(frontier, site.fetcher(), site.links(), nopSink(), "example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 0, c.Pass(ctx))
	assert.Equal(t, 2, frontier.Len())
	assert.Empty(t, site.fetched())
}

func TestCrawler_Pass_finishes_dispatched_tasks_after_cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var persisted atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(fctx context.Context, url string) (*siteingest.PageBundle, error) {
			cancel()
			time.Sleep(5 * time.Millisecond)
			if fctx.Err() != nil {
				return nil, fctx.Err()
			}
			return &siteingest.PageBundle{URL: url, FinalURL: url}, nil
		},
	}
	links := &mock.LinkExtractor{
		ExtractLinksFn: func(string) ([]string, error) { return nil, nil },
	}
	sink := &mock.ContentSink{
		PersistFn: func(context.Context, *siteingest.PageBundle) error {
			persisted.Add(1)
			return nil
		},
	}

	frontier := crawl.NewFrontier()
	frontier.Enqueue("https://example.com/a")
	c := newCrawler(frontier, fetcher, links, sink, "example.com")

	assert.Equal(t, 1, c.Pass(ctx))
	assert.Equal(t, int32(1), persisted.Load())
}

func TestCrawler_Pass_recovers_from_task_panic(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*siteingest.PageBundle, error) {
			if url == "https://example.com/boom" {
				panic("boom")
			}
			return &siteingest.PageBundle{URL: url, FinalURL: url}, nil
		},
	}
	links := &mock.LinkExtractor{
		ExtractLinksFn: func(string) ([]string, error) { return nil, nil },
	}
	var mu sync.Mutex
	var persisted []string
	sink := &mock.ContentSink{
		PersistFn: func(_ context.Context, b *siteingest.PageBundle) error {
			mu.Lock()
			defer mu.Unlock()
			persisted = append(persisted, b.URL)
			return nil
		},
	}

	frontier := crawl.NewFrontier()
	frontier.Enqueue("https://example.com/boom")
	frontier.Enqueue("https://example.com/ok")
	c := newCrawler(frontier, fetcher, links, sink, "example.com")

	assert.Equal(t, 2, c.Pass(context.Background()))
	assert.Equal(t, []string{"https://example.com/ok"}, persisted)
	assert.True(t, frontier.Visited("https://example.com/boom"))
	assert.Equal(t, 0, frontier.Len())
}

func TestCrawler_Visit(t *testing.T) {
	t.Parallel()

	noLinks := &mock.LinkExtractor{
		ExtractLinksFn: func(string) ([]string, error) { return nil, nil },
	}

	t.Run("out of scope URL is skipped without fetching", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				t.Fatal("fetch should not be called")
				return nil, nil
			},
		}
		frontier := crawl.NewFrontier()
		c := newCrawler(frontier, fetcher, noLinks, nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://other.org/")

		assert.Equal(t, siteingest.ResultOutOfScope, outcome.Result)
		assert.True(t, frontier.Visited("https://other.org/"))
	})

	t.Run("navigation timeout marks URL visited and never retries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				calls.Add(1)
				return nil, siteingest.Errorf(siteingest.ETIMEOUT, "navigation timed out")
			},
		}
		frontier := crawl.NewFrontier()
		frontier.Enqueue("https://example.com/slow")
		c := newCrawler(frontier, fetcher, noLinks, nopSink(), "example.com")

		require.Equal(t, 1, c.Pass(context.Background()))
		frontier.Enqueue("https://example.com/slow")

		assert.Equal(t, 0, c.Pass(context.Background()))
		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, frontier.Visited("https://example.com/slow"))
	})

	t.Run("deadline exceeded is reported as timeout", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				return nil, fmt.Errorf("navigate: %w", context.DeadlineExceeded)
			},
		}
		c := newCrawler(crawl.NewFrontier(), fetcher, noLinks, nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, siteingest.ResultNavigationTimeout, outcome.Result)
		assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	})

	t.Run("navigation error is reported as failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				return nil, siteingest.Errorf(siteingest.ENAVIGATION, "net::ERR_NAME_NOT_RESOLVED")
			},
		}
		c := newCrawler(crawl.NewFrontier(), fetcher, noLinks, nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, siteingest.ResultNavigationFailure, outcome.Result)
	})

	t.Run("persist failure is reported and URL stays visited", func(t *testing.T) {
		t.Parallel()

		site := &pageSite{pages: map[string][]string{
			"https://example.com/": {"/next"},
		}}
		sink := &mock.ContentSink{
			PersistFn: func(context.Context, *siteingest.PageBundle) error {
				return errors.New("disk full")
			},
		}
		frontier := crawl.NewFrontier()
		c := newCrawler(frontier, site.fetcher(), site.links(), sink, "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, siteingest.ResultPersistenceFailure, outcome.Result)
		assert.EqualError(t, outcome.Err, "disk full")
		assert.True(t, frontier.Visited("https://example.com/"))
		assert.Equal(t, 1, frontier.Len(), "links are enqueued before persisting")
	})

	t.Run("relative links resolve against the final URL", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*siteingest.PageBundle, error) {
				return &siteingest.PageBundle{FinalURL: "https://example.com/docs/", HTML: "page"}, nil
			},
		}
		links := &mock.LinkExtractor{
			ExtractLinksFn: func(string) ([]string, error) { return []string{"intro"}, nil },
		}
		var got *siteingest.PageBundle
		sink := &mock.ContentSink{
			PersistFn: func(_ context.Context, b *siteingest.PageBundle) error {
				got = b
				return nil
			},
		}
		frontier := crawl.NewFrontier()
		c := newCrawler(frontier, fetcher, links, sink, "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/docs")

		assert.Equal(t, siteingest.ResultPersisted, outcome.Result)
		assert.Equal(t, "https://example.com/docs/", outcome.FinalURL)
		require.NotNil(t, got)
		assert.Equal(t, "https://example.com/docs", got.URL)
		assert.Equal(t, "https://example.com/docs/", got.FinalURL)
		next, ok := frontier.TryClaim()
		require.True(t, ok)
		assert.Equal(t, "https://example.com/docs/intro", next)
		assert.True(t, frontier.Visited("https://example.com/docs/"))
	})

	t.Run("links resolve against the document base URL", func(t *testing.T) {
		t.Parallel()

		site := &pageSite{pages: map[string][]string{
			"https://example.com/a/page": {"child"},
		}}
		links := site.links()
		links.BaseURLFn = func(string, string) string { return "https://example.com/base/" }
		frontier := crawl.NewFrontier()
		c := newCrawler(frontier, site.fetcher(), links, nopSink(), "example.com")

		c.Visit(context.Background(), "https://example.com/a/page")

		next, ok := frontier.TryClaim()
		require.True(t, ok)
		assert.Equal(t, "https://example.com/base/child", next)
	})

	t.Run("redirect to a visited URL is skipped", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				return &siteingest.PageBundle{FinalURL: "https://example.com/home"}, nil
			},
		}
		sink := &mock.ContentSink{
			PersistFn: func(context.Context, *siteingest.PageBundle) error {
				t.Fatal("persist should not be called")
				return nil
			},
		}
		frontier := crawl.NewFrontier()
		frontier.Enqueue("https://example.com/home")
		_, _ = frontier.TryClaim()
		frontier.MarkVisited("https://example.com/home")
		c := newCrawler(frontier, fetcher, noLinks, sink, "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/old")

		assert.Equal(t, siteingest.ResultAlreadyVisited, outcome.Result)
		assert.True(t, frontier.Visited("https://example.com/old"))
	})

	t.Run("redirect out of scope is skipped", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				return &siteingest.PageBundle{FinalURL: "https://login.other.org/"}, nil
			},
		}
		c := newCrawler(crawl.NewFrontier(), fetcher, noLinks, nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/private")

		assert.Equal(t, siteingest.ResultOutOfScope, outcome.Result)
		assert.Equal(t, "https://login.other.org/", outcome.FinalURL)
	})

	t.Run("redirect target is claimed so it is not crawled again", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*siteingest.PageBundle, error) {
				return &siteingest.PageBundle{FinalURL: "https://www.example.com/"}, nil
			},
		}
		frontier := crawl.NewFrontier()
		frontier.Enqueue("https://www.example.com/")
		c := newCrawler(frontier, fetcher, noLinks, nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, siteingest.ResultPersisted, outcome.Result)
		assert.Equal(t, 0, frontier.Len())
		assert.True(t, frontier.Visited("https://www.example.com/"))
	})

	t.Run("observer receives the outcome", func(t *testing.T) {
		t.Parallel()

		site := &pageSite{pages: map[string][]string{
			"https://example.com/": {"/a", "mailto:x@example.com", "https://other.org/"},
		}}
		var got []siteingest.Outcome
		c := newCrawler(crawl.NewFrontier(), site.fetcher(), site.links(), nopSink(), "example.com")
		c.Observer = &mock.Observer{
			OnOutcomeFn: func(o siteingest.Outcome) { got = append(got, o) },
		}

		c.Visit(context.Background(), "https://example.com/")

		require.Len(t, got, 1)
		assert.Equal(t, siteingest.ResultPersisted, got[0].Result)
		assert.Equal(t, 3, got[0].Discovered)
		assert.Equal(t, 1, got[0].Enqueued)
	})

	t.Run("links already in the frontier are not counted as enqueued", func(t *testing.T) {
		t.Parallel()

		site := &pageSite{pages: map[string][]string{
			"https://example.com/": {"/a", "/b", "/a"},
		}}
		frontier := crawl.NewFrontier()
		frontier.Enqueue("https://example.com/b")
		c := newCrawler(frontier, site.fetcher(), site.links(), nopSink(), "example.com")

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, 3, outcome.Discovered)
		assert.Equal(t, 1, outcome.Enqueued)
		assert.Equal(t, 2, frontier.Len())
	})

	t.Run("limiter error fails the task", func(t *testing.T) {
		t.Parallel()

		c := newCrawler(crawl.NewFrontier(), (&pageSite{}).fetcher(), noLinks, nopSink(), "example.com")
		c.Limiter = &mock.DomainLimiter{
			WaitFn: func(context.Context, string) error { return errors.New("limiter closed") },
		}

		outcome := c.Visit(context.Background(), "https://example.com/")

		assert.Equal(t, siteingest.ResultNavigationFailure, outcome.Result)
	})

	t.Run("scope update applies to the next task", func(t *testing.T) {
		t.Parallel()

		c := newCrawler(crawl.NewFrontier(), (&pageSite{}).fetcher(), noLinks, nopSink(), "example.com")
		c.Scope.Set(siteingest.ParseAllowList("other.org"))

		assert.Equal(t, siteingest.ResultOutOfScope, c.Visit(context.Background(), "https://example.com/").Result)
		assert.Equal(t, siteingest.ResultPersisted, c.Visit(context.Background(), "https://other.org/").Result)
	})
}
