package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// ErrUnrecognizedFormat means the body matched none of the supported feed
// dialects (RSS 2.0, Atom, RDF/RSS 1.0). Callers fall back to HTML link
// scraping instead of treating this as fatal.
var ErrUnrecognizedFormat = errors.New("unrecognized feed format")

// RawItem is the single normalized shape all three feed dialects map onto.
// Ephemeral: it exists only within one fetch and is never persisted.
type RawItem struct {
	Title       string
	Link        string
	Description string
	Published   time.Time // zero when the feed carried no usable date
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Parse sanitizes raw feed text and parses it across the three dialects.
// gofeed covers the dialect quirks: Atom titles and summaries in text
// constructs, Atom link arrays where the "alternate" relation wins, and the
// case-insensitive RDF root with Dublin Core dates. Items without a
// non-empty absolute http(s) link and title are dropped.
func (p *Parser) Parse(raw string) ([]RawItem, error) {
	clean := Sanitize(raw)

	parsed, err := p.gofeedParser.ParseString(clean)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, fmt.Errorf("%w: body starts with %.40q", ErrUnrecognizedFormat, strings.TrimSpace(clean))
		}
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := it.Link
		if link == "" {
			link = it.GUID
		}

		item := RawItem{
			Title:       strings.TrimSpace(it.Title),
			Link:        cleanLink(link),
			Description: strings.TrimSpace(it.Description),
		}

		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.UTC()
		} else if it.Published != "" {
			if ts, err := dateparse.ParseAny(it.Published); err == nil {
				item.Published = ts.UTC()
			}
		}

		if !validItem(item) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// cleanLink strips literal angle-bracket wrapping some feeds put around
// bare URLs.
func cleanLink(link string) string {
	link = strings.TrimSpace(link)
	link = strings.TrimPrefix(link, "<")
	link = strings.TrimSuffix(link, ">")
	return strings.TrimSpace(link)
}

func validItem(item RawItem) bool {
	if item.Title == "" || item.Link == "" {
		return false
	}
	u, err := url.Parse(item.Link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
