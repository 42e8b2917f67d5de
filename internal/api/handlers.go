package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/JustJay7/hc-case-tracker/internal/cache"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/internal/scraper"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// SearchRunner is the retrieval pipeline as the API sees it
type SearchRunner interface {
	Run(ctx context.Context, query scraper.SearchQuery, progress scraper.ProgressFunc) (*database.CaseRecord, error)
}

// Handlers holds all HTTP handlers
type Handlers struct {
	store  *database.Store
	cache  cache.Cache
	runner SearchRunner
	docs   *scraper.DocumentFetcher
	logger *logger.Logger
	cfg    *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(store *database.Store, cache cache.Cache, runner SearchRunner, docs *scraper.DocumentFetcher, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		store:  store,
		cache:  cache,
		runner: runner,
		docs:   docs,
		logger: logger,
		cfg:    cfg,
	}
}

// SearchCase runs one retrieval for the posted query
func (h *Handlers) SearchCase(c *gin.Context) {
	var query scraper.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	cacheKey := cache.GenerateCacheKey(query.CaseType, query.CaseNumber, query.FilingYear)
	if cached, found := h.cache.Get(cacheKey); found {
		h.logger.Info("cache hit", "key", cacheKey)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"data":      cached,
			"fromCache": true,
		})
		return
	}

	ctx := scraper.WithClientIP(c.Request.Context(), c.ClientIP())
	record, err := h.runner.Run(ctx, query, nil)
	if err != nil {
		c.JSON(searchErrorStatus(err), gin.H{
			"success":  false,
			"error":    err.Error(),
			"guidance": scraper.Guidance(err),
		})
		return
	}

	h.cache.Set(cacheKey, record)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      record,
		"fromCache": false,
	})
}

// searchErrorStatus maps pipeline failure classes onto HTTP statuses
func searchErrorStatus(err error) int {
	switch {
	case errors.Is(err, scraper.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, scraper.ErrVerification):
		return http.StatusServiceUnavailable
	case errors.Is(err, scraper.ErrSessionCreation):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// GetCase is the query-parameter variant of SearchCase
func (h *Handlers) GetCase(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing or invalid parameters: type, number, year",
		})
		return
	}

	query := scraper.SearchQuery{
		CaseType:   c.Query("type"),
		CaseNumber: c.Query("number"),
		FilingYear: year,
	}

	cacheKey := cache.GenerateCacheKey(query.CaseType, query.CaseNumber, query.FilingYear)
	if cached, found := h.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"data":      cached,
			"fromCache": true,
		})
		return
	}

	ctx := scraper.WithClientIP(c.Request.Context(), c.ClientIP())
	record, err := h.runner.Run(ctx, query, nil)
	if err != nil {
		c.JSON(searchErrorStatus(err), gin.H{
			"success":  false,
			"error":    err.Error(),
			"guidance": scraper.Guidance(err),
		})
		return
	}

	h.cache.Set(cacheKey, record)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      record,
		"fromCache": false,
	})
}

// History lists all attempts, paginated, newest first
func (h *Handlers) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	attempts, total, err := h.store.AllAttempts(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load search history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    attempts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// RecentHistory lists the latest successful attempts
func (h *Handlers) RecentHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	attempts, err := h.store.RecentAttempts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load recent searches",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    attempts,
	})
}

// Stats returns aggregate search statistics
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.store.Statistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to compute statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// DownloadDocuments fetches the order documents for a stored attempt
func (h *Handlers) DownloadDocuments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid attempt ID",
		})
		return
	}

	attempt, err := h.store.AttemptByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Attempt not found",
		})
		return
	}

	record, err := attempt.Record()
	if err != nil || record == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Attempt carries no case data",
		})
		return
	}

	saved, err := h.docs.Download(record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"files":   saved,
	})
}

// CaseTypes returns the accepted case-type catalog and the selectable
// filing-year range
func (h *Handlers) CaseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"case_types": scraper.CaseTypes,
		"court":      h.cfg.CourtName,
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	_, err := h.store.Statistics()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": err == nil,
		"cache":    h.cache.Stats(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.cache.Stats(),
	})
}
