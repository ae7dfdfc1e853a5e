package fs_test

import (
	"testing"

	"github.com/fwojciec/siteingest"
	"github.com/fwojciec/siteingest/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "simple path",
			url:  "https://example.com/docs/api/users",
			want: "example.com/docs/api/users",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/docs/",
			want: "example.com/docs/index",
		},
		{
			name: "root path becomes index",
			url:  "https://example.com/",
			want: "example.com/index",
		},
		{
			name: "root without trailing slash",
			url:  "https://example.com",
			want: "example.com/index",
		},
		{
			name: "query string is part of the name",
			url:  "https://example.com/docs/api?version=2",
			want: "example.com/docs/api_version_2",
		},
		{
			name: "ignores fragment",
			url:  "https://example.com/docs/api#section",
			want: "example.com/docs/api",
		},
		{
			name: "port is kept in host directory",
			url:  "http://localhost:8080/a",
			want: "localhost_8080/a",
		},
		{
			name: "unsafe characters are replaced",
			url:  "https://example.com/a%20b/c:d",
			want: "example.com/a_b/c_d",
		},
		{
			name: "deep nesting",
			url:  "https://example.com/a/b/c/d/e/f",
			want: "example.com/a/b/c/d/e/f",
		},
		{
			name:    "path traversal",
			url:     "https://example.com/../../../etc/passwd",
			wantErr: true,
		},
		{
			name:    "missing host",
			url:     "/relative/path",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, siteingest.EINVALID, siteingest.ErrorCode(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
