package crawl_test

import (
	"testing"

	"github.com/fwojciec/siteingest/crawl"
	"github.com/stretchr/testify/assert"
)

func TestTruncateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		maxLen int
		want   string
	}{
		{"short URL unchanged", "https://x.com", 50, "https://x.com"},
		{"exact length unchanged", "https://example.com", 19, "https://example.com"},
		{"keeps the path tail", "https://example.com/very/long/path/to/page", 16, ".../path/to/page"},
		{"zero width", "https://example.com", 0, ""},
		{"negative width", "https://example.com", -1, ""},
		{"too narrow for ellipsis", "https://example.com", 3, "htt"},
		{"short URL in narrow column", "ab", 3, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := crawl.TruncateURL(tt.url, tt.maxLen)

			assert.Equal(t, tt.want, got)
			if tt.maxLen > 0 {
				assert.LessOrEqual(t, len(got), tt.maxLen)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", crawl.FormatBytes(0))
	assert.Equal(t, "1023 B", crawl.FormatBytes(1023))
	assert.Equal(t, "1.5 KB", crawl.FormatBytes(1536))
	assert.Equal(t, "2.0 MB", crawl.FormatBytes(2*1024*1024))
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	t.Run("returns consistent hash for same content", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, crawl.ContentHash("test content"), crawl.ContentHash("test content"))
	})

	t.Run("returns different hashes for different content", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, crawl.ContentHash("content a"), crawl.ContentHash("content b"))
	})

	t.Run("ignores case and whitespace layout", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t,
			crawl.ContentHash("Hello   World\n\tagain"),
			crawl.ContentHash("  hello world again "),
		)
	})

	t.Run("returns fixed width hex string", func(t *testing.T) {
		t.Parallel()
		assert.Regexp(t, `^[0-9a-f]{16}$`, crawl.ContentHash("test"))
	})
}
