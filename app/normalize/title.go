package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

var whitespaceRe = regexp.MustCompile(`\s+`)

// Trailing publisher-attribution suffixes stripped from titles. The named
// pattern runs first so " - Yahoo Sports" style suffixes go even when a
// pipe also appears; the generic pipe pattern then drops " | Section".
var titleSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[-–—|]\s*(yahoo sports|espn|nfl\.com|cbs sports|nbc sports|fox sports|` +
		`profootballtalk|pro football talk|the athletic|usa today|sports illustrated|si\.com|` +
		`bleacher report|rotowire|rotoballer|fantasypros|numberfire|pff|yardbarker)\s*$`),
	regexp.MustCompile(`\s*\|\s*[^|]{1,60}$`),
}

// CleanTitle strips publisher-attribution suffixes and collapses
// whitespace. Source-specific cleaners run before the fixed pattern list.
func CleanTitle(title string, cleaners []*regexp.Regexp) string {
	t := strings.TrimSpace(title)
	for _, re := range cleaners {
		t = re.ReplaceAllString(t, "")
	}
	for _, re := range titleSuffixPatterns {
		t = re.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// Slug builds a deterministic slug from the source name and cleaned title,
// bounded in length. Titles that slug to nothing (non-Latin scripts) fall
// back to a short hash of the canonical URL.
func Slug(sourceName, cleanTitle, canonicalURL string) string {
	folded := strings.ToLower(foldDiacritics(sourceName + " " + cleanTitle))

	var b strings.Builder
	lastDash := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		sum := sha256.Sum256([]byte(canonicalURL))
		slug = "article-" + hex.EncodeToString(sum[:])[:12]
	}

	return slug
}

// Fingerprint is the secondary dedup key: a hash of the canonical URL and
// cleaned title, independent of exact URL equality.
func Fingerprint(canonicalURL, cleanTitle string) string {
	sum := sha256.Sum256([]byte(canonicalURL + "|" + cleanTitle))
	return hex.EncodeToString(sum[:])
}
