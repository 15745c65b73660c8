package feed

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoMatches means the fallback scrape found no plausible article links.
var ErrNoMatches = errors.New("no article links found")

const (
	maxScrapedLinks  = 100
	minAnchorTextLen = 15
)

// Path segments that never lead to articles.
var skipPathSegments = map[string]bool{
	"about": true, "privacy": true, "terms": true, "login": true,
	"signin": true, "signup": true, "register": true, "subscribe": true,
	"pricing": true, "contact": true, "careers": true, "advertise": true,
	"account": true, "newsletter": true, "shop": true, "store": true,
	"cookie": true, "legal": true, "faq": true, "support": true,
	"search": true, "sitemap": true,
}

// ScrapeLinks is the fallback used when feed parsing fails entirely: it
// pulls same-host anchors with non-trivial text out of page markup. When a
// source carries a scrape selector, only anchors under it are considered.
func ScrapeLinks(page []byte, baseURL, selector string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	scope := doc.Selection
	if selector != "" {
		scope = doc.Find(selector)
	}

	seen := make(map[string]bool)
	var items []RawItem

	scope.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= maxScrapedLinks {
			return false
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if len(text) < minAnchorTextLen {
			return true
		}

		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		if !strings.EqualFold(abs.Host, base.Host) {
			return true
		}
		if hasSkippedSegment(abs.Path) {
			return true
		}

		abs.Fragment = ""
		link := abs.String()
		if seen[link] {
			return true
		}
		seen[link] = true

		items = append(items, RawItem{Title: text, Link: link})
		return true
	})

	if len(items) == 0 {
		return nil, ErrNoMatches
	}

	return items, nil
}

func hasSkippedSegment(path string) bool {
	for _, segment := range strings.Split(strings.ToLower(path), "/") {
		if skipPathSegments[segment] {
			return true
		}
	}
	return false
}
