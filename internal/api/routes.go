package api

import (
	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(router gin.IRouter, engine Engine, store RecordStore, documents DocumentFetcher, logger *logger.Logger, cfg *config.Config) {
	h := NewHandlers(engine, store, documents, logger, cfg)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/cache/stats", h.CacheStats)

		api.GET("/case-types", h.CaseTypes)

		// Acquisition
		api.POST("/search", h.SearchCase)
		api.GET("/case", h.GetCaseAPI)
		api.POST("/cases/bulk", h.BulkSearchAPI)

		// Stored data
		api.GET("/cases", h.ListCasesAPI)
		api.GET("/cases/latest", h.LatestCaseAPI)
		api.GET("/history", h.HistoryAPI)

		api.GET("/orders/download", h.DownloadOrder)
	}
}
