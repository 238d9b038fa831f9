// Package hostmatch holds the substring host matching shared by blocking
// decisions and site classification.
package hostmatch

import (
	"net/url"
	"strings"
)

// Normalize trims and lowercases a user-entered site.
func Normalize(site string) string {
	return strings.ToLower(strings.TrimSpace(site))
}

// Host extracts the lowercase hostname from a URL. Bare hosts such as
// "m.youtube.com/watch" are accepted.
func Host(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

// Either reports whether host and site contain one another.
func Either(host, site string) bool {
	if host == "" || site == "" {
		return false
	}
	return strings.Contains(host, site) || strings.Contains(site, host)
}

// Within reports whether site occurs inside host.
func Within(host, site string) bool {
	if host == "" || site == "" {
		return false
	}
	return strings.Contains(host, site)
}
