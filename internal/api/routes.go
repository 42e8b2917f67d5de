package api

import (
	"github.com/gin-gonic/gin"
	"github.com/JustJay7/hc-case-tracker/internal/cache"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/internal/scraper"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, store *database.Store, cache cache.Cache, runner SearchRunner, docs *scraper.DocumentFetcher, logger *logger.Logger, cfg *config.Config) {
	h := NewHandlers(store, cache, runner, docs, logger, cfg)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Case retrieval
		api.POST("/search", h.SearchCase)
		api.GET("/case", h.GetCase)
		api.GET("/case-types", h.CaseTypes)

		// History and statistics
		api.GET("/history", h.History)
		api.GET("/history/recent", h.RecentHistory)
		api.GET("/stats", h.Stats)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)

		// Order documents
		api.POST("/attempts/:id/documents", h.DownloadDocuments)
	}
}
