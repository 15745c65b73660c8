package feed

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestScrapeLinks(t *testing.T) {
	page := []byte(`<html><body>
		<nav><a href="/about">About</a></nav>
		<main>
			<a href="/articles/week-5-waiver-wire-pickups">Week 5 Waiver Wire Pickups at RB</a>
			<a href="/articles/start-sit-week-5">Start/Sit Week 5: The Tough Calls</a>
			<a href="https://other-site.com/articles/external">External article with long anchor text</a>
			<a href="/articles/short">short</a>
		</main>
	</body></html>`)

	items, err := ScrapeLinks(page, "https://example.com/", "")
	if err != nil {
		t.Fatalf("ScrapeLinks failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %v", len(items), items)
	}
	if items[0].Link != "https://example.com/articles/week-5-waiver-wire-pickups" {
		t.Errorf("Unexpected first link: %q", items[0].Link)
	}
	if items[0].Title != "Week 5 Waiver Wire Pickups at RB" {
		t.Errorf("Unexpected first title: %q", items[0].Title)
	}
}

func TestScrapeLinksSelectorScope(t *testing.T) {
	page := []byte(`<html><body>
		<div class="sidebar">
			<a href="/articles/sidebar-story">Sidebar story with plenty of anchor text</a>
		</div>
		<div class="headlines">
			<a href="/articles/main-story">Main story with plenty of anchor text</a>
		</div>
	</body></html>`)

	items, err := ScrapeLinks(page, "https://example.com/", ".headlines")
	if err != nil {
		t.Fatalf("ScrapeLinks failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item within selector scope, got %d", len(items))
	}
	if items[0].Link != "https://example.com/articles/main-story" {
		t.Errorf("Unexpected link: %q", items[0].Link)
	}
}

func TestScrapeLinksSkipsUtilityPaths(t *testing.T) {
	page := []byte(`<html><body>
		<a href="/privacy/policy-details">Our full privacy policy details page</a>
		<a href="/subscribe/newsletter-offer">Subscribe to our premium newsletter</a>
		<a href="/articles/real-story">A real article with a headline here</a>
	</body></html>`)

	items, err := ScrapeLinks(page, "https://example.com/", "")
	if err != nil {
		t.Fatalf("ScrapeLinks failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected utility paths skipped, got %d items", len(items))
	}
}

func TestScrapeLinksDeduplicates(t *testing.T) {
	page := []byte(`<html><body>
		<a href="/articles/story#top">Duplicate headline appearing twice</a>
		<a href="/articles/story">Duplicate headline appearing twice</a>
	</body></html>`)

	items, err := ScrapeLinks(page, "https://example.com/", "")
	if err != nil {
		t.Fatalf("ScrapeLinks failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected fragment-stripped dedup, got %d items", len(items))
	}
}

func TestScrapeLinksCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < maxScrapedLinks+50; i++ {
		fmt.Fprintf(&b, `<a href="/articles/story-%d">Generated headline number %d for testing</a>`, i, i)
	}
	b.WriteString("</body></html>")

	items, err := ScrapeLinks([]byte(b.String()), "https://example.com/", "")
	if err != nil {
		t.Fatalf("ScrapeLinks failed: %v", err)
	}
	if len(items) != maxScrapedLinks {
		t.Errorf("Expected cap of %d items, got %d", maxScrapedLinks, len(items))
	}
}

func TestScrapeLinksNoMatches(t *testing.T) {
	page := []byte(`<html><body><p>No links here at all.</p></body></html>`)

	_, err := ScrapeLinks(page, "https://example.com/", "")
	if !errors.Is(err, ErrNoMatches) {
		t.Errorf("Expected ErrNoMatches, got %v", err)
	}
}
