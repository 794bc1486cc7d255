package entity

import (
	"regexp"
	"strings"
)

// Buildin page identifiers are UUIDs in the hyphenated 8-4-4-4-12 form. A
// feed may be configured with either the bare id or a full share URL, and
// the URL may carry a #fragment anchor pointing into a specific gallery
// block on the page. Other UUID spellings (un-hyphenated hex, urn:uuid:
// prefixes, braces) are rejected; Buildin never emits them.
var (
	bareUUIDRe    = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	buildinPageRe = regexp.MustCompile(`(?i)buildin\.ai/(?:[^/#]+/)?([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
	fragmentRe    = regexp.MustCompile(`(?i)#([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
)

// ExtractPageID normalizes a Buildin page reference to a lowercase UUID.
// It accepts a bare hyphenated UUID token or any buildin.ai URL containing
// one, and returns "" when no page id can be found.
func ExtractPageID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if bareUUIDRe.MatchString(ref) {
		return strings.ToLower(ref)
	}
	if m := buildinPageRe.FindStringSubmatch(ref); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// ExtractGalleryFragment returns the UUID anchor after "#" in a page URL,
// or "" when the URL carries no gallery fragment.
func ExtractGalleryFragment(pageURL string) string {
	if m := fragmentRe.FindStringSubmatch(pageURL); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// CanonicalShareURL builds the public share URL for a Buildin page id.
// Scraping always goes through this form regardless of how the feed was
// originally configured, so redirects from workspace-scoped URLs are avoided.
func CanonicalShareURL(pageID string) string {
	return "https://buildin.ai/share/" + pageID
}
