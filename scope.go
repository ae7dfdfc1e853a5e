package siteingest

import (
	"net/url"
	"strings"
)

// Normalize resolves a possibly-relative href against the URL of the page
// that contained it and returns the absolute form used as crawl identity.
//
// Scheme and host are lower-cased and the fragment is dropped. Paths are
// otherwise kept as-is, so "/docs" and "/docs/" remain distinct URLs.
// The bool result is false for empty hrefs, non-http(s) schemes
// (javascript:, mailto:, tel:, data:, ...) and references without a host.
func Normalize(rawHref, baseURL string) (string, bool) {
	href := strings.TrimSpace(rawHref)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.Scheme != "" && !isHTTPScheme(ref.Scheme) {
		return "", false
	}

	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", false
	}

	u := base.ResolveReference(ref)
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	return u.String(), true
}

func isHTTPScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

// AllowList is an immutable set of host rules deciding which URLs are in
// scope. A rule "example.com" matches the host itself and every subdomain
// of it. The zero value matches nothing.
type AllowList struct {
	rules []string
}

// ParseAllowList builds an AllowList from raw rules. Rules may be bare hosts,
// full URLs, or carry a "*." or "." prefix; ports and paths are ignored.
// Empty and unparseable rules are dropped.
func ParseAllowList(rules ...string) AllowList {
	seen := make(map[string]bool, len(rules))
	var parsed []string
	for _, raw := range rules {
		rule := normalizeRule(raw)
		if rule == "" || seen[rule] {
			continue
		}
		seen[rule] = true
		parsed = append(parsed, rule)
	}
	return AllowList{rules: parsed}
}

func normalizeRule(raw string) string {
	rule := strings.ToLower(strings.TrimSpace(raw))
	rule = strings.TrimPrefix(rule, "*.")
	rule = strings.TrimPrefix(rule, ".")
	if rule == "" {
		return ""
	}
	if !strings.Contains(rule, "://") {
		rule = "//" + rule
	}
	u, err := url.Parse(rule)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Hostname(), ".")
}

// Rules returns a copy of the normalized rules.
func (a AllowList) Rules() []string {
	return append([]string(nil), a.rules...)
}

// Len returns the number of rules.
func (a AllowList) Len() int {
	return len(a.rules)
}

// Match reports whether host equals a rule or is a subdomain of one.
func (a AllowList) Match(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, rule := range a.rules {
		if host == rule || strings.HasSuffix(host, "."+rule) {
			return true
		}
	}
	return false
}

// IsInScope reports whether the URL is http(s) and its host matches the
// allow-list. Matching looks only at the host, never at path or query.
func IsInScope(rawURL string, allow AllowList) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !isHTTPScheme(u.Scheme) {
		return false
	}
	return allow.Match(u.Hostname())
}
