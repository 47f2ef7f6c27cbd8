package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis and diagnostic file names.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeURL resolves href against the page it was found on and drops the fragment.
// The query string is kept verbatim because it can carry collection context the
// site needs for the next navigation.
//
// An empty, unparsable or non-HTTP href yields "", which callers treat as "no link".
func NormalizeURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	relURL, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := relURL
	if !relURL.IsAbs() {
		base, err := url.Parse(strings.TrimSpace(pageURL))
		if err != nil || !base.IsAbs() {
			return ""
		}
		abs = base.ResolveReference(relURL)
	}

	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host == "" {
		return ""
	}

	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String()
}

// Origin returns scheme://host of rawURL, or "" when it is not absolute.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
