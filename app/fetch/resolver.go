package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// Resolution is a successfully fetched feed body. DiscoveredURL is set when
// homepage discovery found a working endpoint that differs from the stored
// one, so the caller can self-heal the source registry.
type Resolution struct {
	Body          []byte
	FinalURL      string
	DiscoveredURL string
}

// ResolveError is terminal: every candidate and the homepage fallback
// failed. Attempted carries the full URL list for diagnostics.
type ResolveError struct {
	Attempted []string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("no feed resolved after %d attempts: %s",
		len(e.Attempted), strings.Join(e.Attempted, ", "))
}

// Resolver walks an ordered feed-URL candidate list and falls back to
// scanning the homepage for an advertised feed link.
type Resolver struct {
	client *Client
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

func (r *Resolver) Resolve(ctx context.Context, feedURL, homepageURL string) (*Resolution, error) {
	var attempted []string

	for _, candidate := range candidateURLs(feedURL) {
		attempted = append(attempted, candidate)

		body, _, err := r.client.Fetch(ctx, candidate)
		if err != nil {
			slog.Debug("Feed candidate failed", "url", candidate, "error", err)
			continue
		}
		if !looksLikeXML(body) {
			slog.Debug("Feed candidate body is not XML", "url", candidate)
			continue
		}

		return &Resolution{Body: body, FinalURL: candidate}, nil
	}

	if homepageURL != "" {
		res, discoveryURL := r.discoverFromHomepage(ctx, feedURL, homepageURL)
		if discoveryURL != "" {
			attempted = append(attempted, discoveryURL)
		}
		if res != nil {
			return res, nil
		}
	}

	return nil, &ResolveError{Attempted: attempted}
}

func (r *Resolver) discoverFromHomepage(ctx context.Context, feedURL, homepageURL string) (*Resolution, string) {
	page, _, err := r.client.Fetch(ctx, homepageURL)
	if err != nil {
		slog.Debug("Homepage fetch failed", "url", homepageURL, "error", err)
		return nil, ""
	}

	discovered := discoverFeedLink(page, homepageURL)
	if discovered == "" {
		return nil, ""
	}

	body, _, err := r.client.Fetch(ctx, discovered)
	if err != nil || !looksLikeXML(body) {
		slog.Debug("Discovered feed failed", "url", discovered, "error", err)
		return nil, discovered
	}

	res := &Resolution{Body: body, FinalURL: discovered}
	if discovered != feedURL {
		res.DiscoveredURL = discovered
	}
	return res, discovered
}

// candidateURLs builds the ordered, deduplicated list tried for a stored
// feed URL: the URL itself, trailing slash stripped, http upgraded to
// https, and /feed and /rss suffixes when the path does not already look
// like a feed.
func candidateURLs(feedURL string) []string {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil
	}

	candidates := []string{feedURL}

	trimmed := strings.TrimSuffix(feedURL, "/")
	candidates = append(candidates, trimmed)

	if strings.HasPrefix(trimmed, "http://") {
		candidates = append(candidates, "https://"+strings.TrimPrefix(trimmed, "http://"))
	}

	if !looksLikeFeedPath(trimmed) {
		candidates = append(candidates, trimmed+"/feed", trimmed+"/rss")
	}

	return lo.Uniq(candidates)
}

func looksLikeFeedPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, marker := range []string{"feed", "rss", "atom", ".xml"} {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// looksLikeXML is the acceptance sniff: the trimmed body starts with '<'.
func looksLikeXML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// discoverFeedLink scans homepage markup for an advertised RSS or Atom
// alternate link and resolves it against the homepage URL.
func discoverFeedLink(page []byte, homepageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	var href string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		linkType, _ := s.Attr("type")
		linkType = strings.ToLower(strings.TrimSpace(linkType))
		if linkType != "application/rss+xml" && linkType != "application/atom+xml" {
			return true
		}
		h, ok := s.Attr("href")
		if !ok || strings.TrimSpace(h) == "" {
			return true
		}
		href = strings.TrimSpace(h)
		return false
	})

	if href == "" {
		return ""
	}

	base, err := url.Parse(homepageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
