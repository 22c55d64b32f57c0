package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/JustJay7/court-case-engine/internal/acquisition"
	"github.com/JustJay7/court-case-engine/internal/cache"
	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/database"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/internal/scraper"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// Engine acquires case records.
type Engine interface {
	Acquire(ctx context.Context, key model.QueryKey) *acquisition.Outcome
	AcquireAll(ctx context.Context, keys []model.QueryKey) []*acquisition.Outcome
}

// RecordStore is the read side of the record store.
type RecordStore interface {
	Lookup(ctx context.Context, key model.QueryKey) (*model.CaseRecord, bool, error)
	ListCases(ctx context.Context, page, limit int) ([]model.StoredCase, int64, error)
	ListRecentLogs(ctx context.Context, limit int, status model.QueryStatus) ([]model.QueryLogEntry, error)
	Ping(ctx context.Context) error
	Stats() cache.CacheStats
}

// DocumentFetcher downloads order documents.
type DocumentFetcher interface {
	Fetch(ctx context.Context, ref string) (*scraper.Document, error)
}

// Handlers holds all HTTP handlers
type Handlers struct {
	engine    Engine
	store     RecordStore
	documents DocumentFetcher
	logger    *logger.Logger
	cfg       *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(engine Engine, store RecordStore, documents DocumentFetcher, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		engine:    engine,
		store:     store,
		documents: documents,
		logger:    logger,
		cfg:       cfg,
	}
}

type caseQuery struct {
	CaseType   string `json:"case_type" binding:"required"`
	CaseNumber string `json:"case_number" binding:"required"`
	FilingYear string `json:"filing_year" binding:"required"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

// queryKey validates the three key parts against the case-type vocabulary.
func queryKey(caseType, caseNumber, filingYear string) (model.QueryKey, error) {
	key, err := model.NewQueryKey(caseType, caseNumber, filingYear)
	if err != nil {
		return key, err
	}
	if !model.IsKnownCaseType(key.CaseType) {
		return key, fmt.Errorf("unknown case type %q", key.CaseType)
	}
	return key, nil
}

func outcomeJSON(out *acquisition.Outcome) gin.H {
	body := gin.H{
		"success":         true,
		"data":            out.Record,
		"provenance":      out.Record.Provenance,
		"query_id":        out.QueryID,
		"fallback_reason": nil,
	}
	if out.FallbackReason != "" {
		body["fallback_reason"] = out.FallbackReason
	}
	return body
}

// CaseTypes lists the accepted case types.
func (h *Handlers) CaseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"court":   h.cfg.CourtName,
		"data":    model.CaseTypes,
	})
}

// SearchCase acquires a record for a JSON query.
func (h *Handlers) SearchCase(c *gin.Context) {
	var req caseQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	h.acquire(c, req.CaseType, req.CaseNumber, req.FilingYear)
}

// GetCaseAPI acquires a record for query parameters type, number and year.
func (h *Handlers) GetCaseAPI(c *gin.Context) {
	caseType := c.Query("type")
	caseNumber := c.Query("number")
	filingYear := c.Query("year")

	if caseType == "" || caseNumber == "" || filingYear == "" {
		badRequest(c, "Missing required parameters: type, number, year")
		return
	}
	h.acquire(c, caseType, caseNumber, filingYear)
}

func (h *Handlers) acquire(c *gin.Context, caseType, caseNumber, filingYear string) {
	key, err := queryKey(caseType, caseNumber, filingYear)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	out := h.engine.Acquire(c.Request.Context(), key)
	c.JSON(http.StatusOK, outcomeJSON(out))
}

// BulkSearchAPI acquires up to ten records concurrently.
func (h *Handlers) BulkSearchAPI(c *gin.Context) {
	var req struct {
		Queries []caseQuery `json:"queries" binding:"required,min=1,max=10,dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	keys := make([]model.QueryKey, 0, len(req.Queries))
	for i, q := range req.Queries {
		key, err := queryKey(q.CaseType, q.CaseNumber, q.FilingYear)
		if err != nil {
			badRequest(c, fmt.Sprintf("query %d: %v", i, err))
			return
		}
		keys = append(keys, key)
	}

	outcomes := h.engine.AcquireAll(c.Request.Context(), keys)

	results := make([]gin.H, 0, len(outcomes))
	for i, out := range outcomes {
		data := outcomeJSON(out)
		data["query"] = keys[i]
		results = append(results, data)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

// LatestCaseAPI returns the stored record for a key without contacting the
// court website.
func (h *Handlers) LatestCaseAPI(c *gin.Context) {
	key, err := model.NewQueryKey(c.Query("type"), c.Query("number"), c.Query("year"))
	if err != nil {
		badRequest(c, "Missing required parameters: type, number, year")
		return
	}

	record, fromCache, err := h.store.Lookup(c.Request.Context(), key)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "No stored record for " + key.String(),
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load stored case", "case", key.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load stored case",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       record,
		"provenance": record.Provenance,
		"fromCache":  fromCache,
	})
}

// ListCasesAPI pages through stored records.
func (h *Handlers) ListCasesAPI(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	cases, total, err := h.store.ListCases(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("Failed to list cases", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to list cases",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// HistoryAPI lists recent query log entries, newest first.
func (h *Handlers) HistoryAPI(c *gin.Context) {
	limit := h.cfg.HistoryLimit
	if limit < 1 {
		limit = database.DefaultHistoryLimit
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	status := model.QueryStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		badRequest(c, fmt.Sprintf("unknown status %q", c.Query("status")))
		return
	}

	entries, err := h.store.ListRecentLogs(c.Request.Context(), limit, status)
	if err != nil {
		h.logger.Error("Failed to list history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to list history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

// DownloadOrder streams a live order document.
func (h *Handlers) DownloadOrder(c *gin.Context) {
	ref := c.Query("url")
	if ref == "" {
		badRequest(c, "Missing required parameter: url")
		return
	}

	doc, err := h.documents.Fetch(c.Request.Context(), ref)
	switch {
	case errors.Is(err, scraper.ErrSyntheticDocument):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Document not available",
			"note":    "This order belongs to a synthetic record and has no downloadable file",
		})
		return
	case errors.Is(err, scraper.ErrInvalidReference):
		badRequest(c, err.Error())
		return
	case err != nil:
		h.logger.Warn("Order download failed", "url", ref, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Failed to download document: " + err.Error(),
		})
		return
	}

	filename := path.Base(strings.SplitN(ref, "?", 2)[0])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	dbHealthy := h.store.Ping(ctx) == nil

	status, code := "healthy", http.StatusOK
	if !dbHealthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbHealthy,
		"cache":    h.store.Stats(),
		"time":     time.Now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.store.Stats(),
	})
}
