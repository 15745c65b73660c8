package database

import (
	"time"
)

// Source is a publisher configuration row. It is managed by an external
// admin surface; ingestion reads it and only writes back feed_url when the
// resolver discovers a better endpoint.
type Source struct {
	ID             int64
	Name           string
	FeedURL        string
	HomepageURL    string
	ScrapeSelector string
	FetchMethod    string // feed, scrape
	Allowed        bool
	Priority       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Article is a persisted canonical article record. Rows are created once by
// ingestion and never mutated by it afterwards; enrichment columns
// (image_url, is_player_page) are populated by downstream subsystems.
type Article struct {
	ID             int64
	SourceID       int64
	URL            string
	CanonicalURL   string
	Domain         string
	Title          string
	CleanTitle     string
	Slug           string
	Fingerprint    string
	PublishedAt    *time.Time
	DiscoveredAt   time.Time
	Topics         []string
	PrimaryTopic   string
	SecondaryTopic string
	Category       string
	Confidence     float64
	Week           *int
	ImageURL       string
	IsPlayerPage   bool
}

// IngestLog is an append-only diagnostic entry consumed by an external
// health dashboard. This pipeline only writes it.
type IngestLog struct {
	ID        int64
	SourceID  int64
	URL       string
	Title     string
	Reason    string
	Detail    string
	CreatedAt time.Time
}

// Fixed reason vocabulary for ingest logging. Downstream aggregation groups
// on these values, so they must not drift.
const (
	ReasonFetchError      = "fetch_error"
	ReasonParseError      = "parse_error"
	ReasonScrapeNoMatches = "scrape_no_matches"
	ReasonInvalidItem     = "invalid_item"
	ReasonBlockedByFilter = "blocked_by_filter"
	ReasonNonNFLLeague    = "non_nfl_league"
	ReasonFilteredOut     = "filtered_out"
	ReasonUpsertInserted  = "upsert_inserted"
	ReasonUpsertUpdated   = "upsert_updated"
	ReasonUpsertSkipped   = "upsert_skipped"
)
