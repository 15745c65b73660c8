package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo handles database operations for canonical articles.
type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// UpsertArticle inserts a candidate unless a row with the same canonical URL
// or fingerprint already exists. Duplicates report UpsertSkippedDuplicate;
// concurrent and repeated runs over the same content never create a second
// row and never fail on the conflict.
func (r *ArticleRepo) UpsertArticle(a Article) (UpsertResult, error) {
	var existingID sql.NullInt64
	err := r.db.QueryRow(`
		SELECT id FROM articles WHERE fingerprint = $1 LIMIT 1
	`, a.Fingerprint).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return UpsertSkippedDuplicate, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	if err == nil {
		return UpsertSkippedDuplicate, nil
	}

	var id int64
	err = r.db.QueryRow(`
		INSERT INTO articles (
			source_id, url, canonical_url, domain, title, clean_title, slug,
			fingerprint, published_at, topics, primary_topic, secondary_topic,
			category, confidence, week
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (canonical_url) DO NOTHING
		RETURNING id
	`, a.SourceID, a.URL, a.CanonicalURL, a.Domain, a.Title, a.CleanTitle, a.Slug,
		a.Fingerprint, a.PublishedAt, pq.Array(a.Topics),
		nullString(a.PrimaryTopic), nullString(a.SecondaryTopic),
		nullString(a.Category), a.Confidence, a.Week).Scan(&id)

	if err == sql.ErrNoRows {
		// Conflict on canonical_url: another run got here first.
		return UpsertSkippedDuplicate, nil
	}
	if err != nil {
		return UpsertSkippedDuplicate, fmt.Errorf("failed to insert article: %w", err)
	}

	return UpsertInserted, nil
}

// IsBlocked reports whether an operator has suppressed the canonical URL.
func (r *ArticleRepo) IsBlocked(canonicalURL string) (bool, error) {
	var blocked bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM blocked_urls WHERE canonical_url = $1)
	`, canonicalURL).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("failed to check blocklist: %w", err)
	}
	return blocked, nil
}

// CountArticles returns the total number of stored articles.
func (r *ArticleRepo) CountArticles() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
