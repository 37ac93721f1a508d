package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/sirupsen/logrus"
)

// StatsProvider exposes counters of a component
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	regimeService services.RegimeServiceInterface
	cacheService  services.CacheServiceInterface
	rateLimiter   StatsProvider
	logger        *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(regimeService services.RegimeServiceInterface, cacheService services.CacheServiceInterface, rateLimiter StatsProvider, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		regimeService: regimeService,
		cacheService:  cacheService,
		rateLimiter:   rateLimiter,
		logger:        logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Registry counters, cache and rate limiter statistics and runtime figures
// @Tags Metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := gin.H{
		"registry": h.regimeService.Health(),
		"system": gin.H{
			"memory_alloc_mb": float64(m.Alloc) / 1024 / 1024,
			"goroutines":      runtime.NumGoroutine(),
		},
		"timestamp": time.Now(),
	}

	cacheStats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to collect cache statistics")
	} else {
		response["cache"] = cacheStats
	}

	if h.rateLimiter != nil {
		response["rate_limit"] = h.rateLimiter.GetStats()
	}

	c.JSON(http.StatusOK, response)
}
