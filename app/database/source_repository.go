package database

import (
	"database/sql"
	"fmt"
)

var _ SourceRepository = (*SourceRepo)(nil)

// SourceRepo handles database operations for publisher sources.
type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// GetAllowedSources returns admitted sources ordered by priority (higher
// first), then registration order.
func (r *SourceRepo) GetAllowedSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, COALESCE(feed_url, ''), COALESCE(homepage_url, ''),
		       COALESCE(scrape_selector, ''), fetch_method, allowed, priority,
		       created_at, updated_at
		FROM sources
		WHERE allowed = true
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowed sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		err := rows.Scan(
			&s.ID, &s.Name, &s.FeedURL, &s.HomepageURL,
			&s.ScrapeSelector, &s.FetchMethod, &s.Allowed, &s.Priority,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// GetSource retrieves a source by id, nil when absent.
func (r *SourceRepo) GetSource(id int64) (*Source, error) {
	var s Source
	err := r.db.QueryRow(`
		SELECT id, name, COALESCE(feed_url, ''), COALESCE(homepage_url, ''),
		       COALESCE(scrape_selector, ''), fetch_method, allowed, priority,
		       created_at, updated_at
		FROM sources
		WHERE id = $1
	`, id).Scan(
		&s.ID, &s.Name, &s.FeedURL, &s.HomepageURL,
		&s.ScrapeSelector, &s.FetchMethod, &s.Allowed, &s.Priority,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &s, nil
}

// UpdateFeedURL persists a discovered feed endpoint back onto the source so
// future runs skip the dead candidate walk.
func (r *SourceRepo) UpdateFeedURL(id int64, feedURL string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET feed_url = $2, updated_at = NOW()
		WHERE id = $1
	`, id, feedURL)

	if err != nil {
		return fmt.Errorf("failed to update source feed url: %w", err)
	}

	return nil
}
