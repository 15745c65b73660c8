package feed

import (
	"errors"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Fantasy News</title>
    <item>
      <title>Week 5 Waiver Wire Pickups</title>
      <link>https://example.com/articles/week-5-waivers</link>
      <description>Top adds for week 5.</description>
      <pubDate>Mon, 29 Sep 2025 14:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Injury Report</title>
      <link>https://example.com/articles/injury-report</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Week 5 Waiver Wire Pickups" {
		t.Errorf("Unexpected title: %q", items[0].Title)
	}
	if items[0].Link != "https://example.com/articles/week-5-waivers" {
		t.Errorf("Unexpected link: %q", items[0].Link)
	}
	if items[0].Description != "Top adds for week 5." {
		t.Errorf("Unexpected description: %q", items[0].Description)
	}

	expected := time.Date(2025, 9, 29, 14, 0, 0, 0, time.UTC)
	if !items[0].Published.Equal(expected) {
		t.Errorf("Expected published %v, got %v", expected, items[0].Published)
	}
	if !items[1].Published.IsZero() {
		t.Errorf("Item without date should have zero Published, got %v", items[1].Published)
	}
}

func TestParseAtom(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Fantasy Feed</title>
  <entry>
    <title>Start/Sit Week 3: Tough Calls</title>
    <link rel="self" href="https://example.com/entry.atom"/>
    <link rel="alternate" type="text/html" href="https://example.com/articles/start-sit-week-3"/>
    <summary>Lineup decisions for week 3.</summary>
    <updated>2025-09-16T10:30:00Z</updated>
  </entry>
</feed>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	// The alternate relation must win over self in the link array.
	if items[0].Link != "https://example.com/articles/start-sit-week-3" {
		t.Errorf("Expected alternate link, got %q", items[0].Link)
	}
	if items[0].Title != "Start/Sit Week 3: Tough Calls" {
		t.Errorf("Unexpected title: %q", items[0].Title)
	}
}

func TestParseRDF(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="https://example.com/">
    <title>Legacy Feed</title>
    <link>https://example.com/</link>
  </channel>
  <item rdf:about="https://example.com/articles/rankings-update">
    <title>Rest-of-Season Rankings Update</title>
    <link>https://example.com/articles/rankings-update</link>
    <dc:date>2025-10-01T08:00:00Z</dc:date>
  </item>
</rdf:RDF>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Link != "https://example.com/articles/rankings-update" {
		t.Errorf("Unexpected link: %q", items[0].Link)
	}
	if items[0].Published.IsZero() {
		t.Error("Expected dc:date to populate Published")
	}
}

func TestParseUnrecognizedFormat(t *testing.T) {
	parser := NewParser()

	_, err := parser.Parse("<html><body><p>Not a feed</p></body></html>")
	if err == nil {
		t.Fatal("Expected error for HTML input")
	}
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("Expected ErrUnrecognizedFormat, got %v", err)
	}
}

func TestParseBareAmpersandInTitle(t *testing.T) {
	raw := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>News</title>
    <item>
      <title>Saquon & the Eagles backfield</title>
      <link>https://example.com/articles/saquon</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed on repaired markup: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Saquon & the Eagles backfield" {
		t.Errorf("Ampersand not round-tripped, got %q", items[0].Title)
	}
}

func TestParseDropsInvalidItems(t *testing.T) {
	raw := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>News</title>
    <item>
      <title>No link at all</title>
    </item>
    <item>
      <link>https://example.com/articles/no-title</link>
    </item>
    <item>
      <title>Relative link</title>
      <link>/articles/relative</link>
    </item>
    <item>
      <title>Valid item</title>
      <link>https://example.com/articles/valid</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected only the valid item, got %d", len(items))
	}
	if items[0].Link != "https://example.com/articles/valid" {
		t.Errorf("Unexpected surviving item: %q", items[0].Link)
	}
}

func TestParseGUIDFallbackAndAngleBrackets(t *testing.T) {
	raw := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>News</title>
    <item>
      <title>GUID carries the URL</title>
      <guid>&lt;https://example.com/articles/guid-link&gt;</guid>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Link != "https://example.com/articles/guid-link" {
		t.Errorf("Expected angle brackets stripped from GUID link, got %q", items[0].Link)
	}
}
