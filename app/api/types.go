package api

import (
	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/ingest"
)

// Handler serves the ingest trigger and health endpoints.
type Handler struct {
	orchestrator *ingest.Orchestrator
	db           *database.DB
	articles     database.ArticleRepository
}
