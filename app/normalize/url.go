package normalize

import (
	"fmt"
	"net/url"
	"strings"
)

// Tracking query parameters stripped during canonicalization, beyond the
// utm_* prefix family.
var trackingParams = map[string]bool{
	"fbclid": true, "gclid": true, "mc_cid": true, "mc_eid": true,
	"ref": true, "cn": true, "cmp": true, "igshid": true,
}

// CanonicalURL computes the deduplication-key form of a URL: tracking
// parameters removed, fragment dropped, trailing slash stripped unless the
// path is root. Protocol-relative input is upgraded to https. The result
// is a fixed point: canonicalizing it again returns it unchanged.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host: %s", raw)
	}

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path != "" && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Generic landing paths that must never become a dedup key: many distinct
// articles would collapse onto them.
var genericPaths = map[string]bool{
	"": true, "/": true, "/news": true, "/blog": true, "/articles": true,
	"/stories": true, "/sports": true, "/nfl": true, "/fantasy": true,
	"/fantasy-football": true, "/fantasy/football": true,
}

// PreferCanonical picks between the original URL and an externally supplied
// canonical alternative. The original wins when the alternative points at a
// generic landing path or is shallower on the same host.
func PreferCanonical(original, canonical string) string {
	if canonical == "" || canonical == original {
		return original
	}

	orig, err := url.Parse(original)
	if err != nil {
		return original
	}
	alt, err := url.Parse(canonical)
	if err != nil {
		return original
	}

	altPath := strings.TrimSuffix(strings.ToLower(alt.Path), "/")
	if genericPaths[altPath] {
		return original
	}
	if strings.EqualFold(orig.Host, alt.Host) && pathDepth(altPath) < pathDepth(orig.Path) {
		return original
	}

	return canonical
}

func pathDepth(path string) int {
	depth := 0
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			depth++
		}
	}
	return depth
}
