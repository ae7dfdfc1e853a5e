// Package fs provides file-based storage for captured pages.
package fs

import (
	"net/url"
	"path"
	"strings"

	"github.com/fwojciec/siteingest"
)

// URLToPath converts a page URL to a slash-separated relative path without
// extension, rooted at the host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users
//
// The root path and paths with a trailing slash map to "index" in that
// directory. A query string is folded into the file name so that pages
// differing only by query do not overwrite each other.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", siteingest.Errorf(siteingest.EINVALID, "invalid page URL: %v", err)
	}
	host := sanitize(strings.ToLower(u.Host))
	if host == "" {
		return "", siteingest.Errorf(siteingest.EINVALID, "page URL has no host: %q", rawURL)
	}

	p := u.Path
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", siteingest.Errorf(siteingest.EINVALID, "path traversal in page URL: %q", rawURL)
		}
	}

	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	if u.RawQuery != "" {
		p += "_" + sanitize(u.RawQuery)
	}

	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, seg := range segs {
		segs[i] = sanitize(seg)
	}
	return path.Join(append([]string{host}, segs...)...), nil
}

// sanitize replaces characters that are unsafe in file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
