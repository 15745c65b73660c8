package database

import (
	"fmt"
)

var _ IngestLogRepository = (*IngestLogRepo)(nil)

// IngestLogRepo appends diagnostic entries. The pipeline never reads them
// back; an external dashboard does.
type IngestLogRepo struct {
	db *DB
}

func NewIngestLogRepository(db *DB) *IngestLogRepo {
	return &IngestLogRepo{db: db}
}

func (r *IngestLogRepo) Append(entry IngestLog) error {
	var sourceID interface{}
	if entry.SourceID != 0 {
		sourceID = entry.SourceID
	}

	_, err := r.db.Exec(`
		INSERT INTO ingest_logs (source_id, url, title, reason, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, sourceID, entry.URL, entry.Title, entry.Reason, entry.Detail)

	if err != nil {
		return fmt.Errorf("failed to append ingest log: %w", err)
	}

	return nil
}
