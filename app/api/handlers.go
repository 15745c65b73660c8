package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/ingest"
)

func NewHandler(orchestrator *ingest.Orchestrator, db *database.DB,
	articles database.ArticleRepository) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		db:           db,
		articles:     articles,
	}
}

// TriggerIngest runs one batch synchronously and returns its report.
// Optional query parameters: source_id restricts the batch to one source,
// limit overrides the per-source item cap, verbose=1 includes per-source
// diagnostics in the response.
func (h *Handler) TriggerIngest(c *gin.Context) {
	var opts ingest.Options

	if raw := c.Query("source_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source_id parameter"})
			return
		}
		opts.SourceID = id
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		opts.ItemCap = limit
	}

	opts.Verbose = c.Query("verbose") == "1" || c.Query("verbose") == "true"

	report, err := h.orchestrator.Run(c.Request.Context(), opts)
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "An ingest run is already in progress"})
			return
		}
		slog.Error("Ingest run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ingest run failed",
			"details": err.Error(),
		})
		return
	}

	response := gin.H{
		"discovered": report.Discovered,
		"inserted":   report.Inserted,
		"errors":     report.Errors,
		"duration":   report.Duration.String(),
	}
	if opts.Verbose {
		response["sources"] = report.Sources
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.Ping(); err != nil {
		slog.Error("Database ping failed", "error", err)
		health["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["database"] = "ok"

	if count, err := h.articles.CountArticles(); err == nil {
		health["articles"] = count
	}

	c.JSON(http.StatusOK, health)
}
