// Package urlutil holds the URL canonicalization helpers shared by the
// crawler, the store, and the HTTP surface. Page identity everywhere is the
// cleaned (fragment-free) URL.
package urlutil

import (
	"net/url"
	"strings"
)

// Clean normalizes a URL by dropping its fragment component. The result is
// the canonical page identity used for crawl visited-sets and store keys.
// Unparseable input is returned unchanged.
func Clean(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// SameOrigin reports whether target is an http(s) URL on the same host as
// base. Unparseable input is never same-origin.
func SameOrigin(base, target string) bool {
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	if t.Scheme != "http" && t.Scheme != "https" {
		return false
	}
	return t.Host == b.Host
}

// Sanitize performs basic cleanup on URLs to handle common copy-paste
// issues: surrounding whitespace, trailing punctuation, and wrapping
// brackets or quotes.
func Sanitize(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	for _, char := range []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"} {
		cleaned = strings.TrimSuffix(cleaned, char)
	}
	for _, char := range []string{"(", "[", "<", "\"", "'"} {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// Validate reports whether a sanitized URL is a fetchable absolute http(s)
// URL with a non-empty host.
func Validate(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	return !strings.ContainsAny(parsed.Host, "{}[]<>\"'")
}
