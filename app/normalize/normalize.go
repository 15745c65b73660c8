package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jdotsteets/fantasy-report-sub002/app/feed"
)

// Candidate is the normalized form of one admitted item, consumed
// immediately by classification and the upsert store. Ephemeral.
type Candidate struct {
	SourceID     int64
	SourceName   string
	URL          string
	CanonicalURL string
	Domain       string
	Title        string
	CleanTitle   string
	Slug         string
	Fingerprint  string
	PublishedAt  time.Time // zero when the feed carried no date
	Week         *int
}

// Normalizer computes canonical URLs, cleaned titles, slugs and
// fingerprints. Source-specific title cleaners are keyed by lowercase
// source name.
type Normalizer struct {
	sourceCleaners map[string][]*regexp.Regexp
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		sourceCleaners: map[string][]*regexp.Regexp{
			"yahoo sports": {regexp.MustCompile(`(?i)\s*- yahoo sports$`)},
			"nbc sports":   {regexp.MustCompile(`(?i)\s*- nbc sports$`)},
		},
	}
}

// Normalize produces a Candidate for an admitted item. An item whose link
// cannot be canonicalized is invalid.
func (n *Normalizer) Normalize(item feed.RawItem, sourceID int64, sourceName string) (*Candidate, error) {
	canonical, err := CanonicalURL(item.Link)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize %q: %w", item.Link, err)
	}

	u, err := url.Parse(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to parse canonical url: %w", err)
	}

	cleanTitle := CleanTitle(item.Title, n.sourceCleaners[strings.ToLower(sourceName)])
	if cleanTitle == "" {
		return nil, fmt.Errorf("title is empty after cleaning: %q", item.Title)
	}

	return &Candidate{
		SourceID:     sourceID,
		SourceName:   sourceName,
		URL:          item.Link,
		CanonicalURL: canonical,
		Domain:       u.Hostname(),
		Title:        item.Title,
		CleanTitle:   cleanTitle,
		Slug:         Slug(sourceName, cleanTitle, canonical),
		Fingerprint:  Fingerprint(canonical, cleanTitle),
		PublishedAt:  item.Published,
		Week:         ExtractWeek(item.Title + " " + item.Description),
	}, nil
}
