package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/nfe-regime/internal/registry"
	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/nexconsult/nfe-regime/internal/utils"
	"github.com/sirupsen/logrus"
)

// CacheHandler handles regime cache management requests
type CacheHandler struct {
	cacheService services.CacheServiceInterface
	logger       *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to get cache statistics")

		errorResponse(c, http.StatusInternalServerError, "CACHE_STATS_ERROR", "Internal server error",
			"Failed to retrieve cache statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"health":    h.cacheService.Health(),
		"timestamp": time.Now(),
	})
}

// Clear handles cache clear request
// @Summary Clear cached regimes
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	requestID := c.GetString("request_id")

	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to clear cache")

		errorResponse(c, http.StatusInternalServerError, "CACHE_CLEAR_ERROR", "Internal server error",
			"Failed to clear cache")
		return
	}

	h.logger.WithField("request_id", requestID).Info("Regime cache cleared")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cache cleared successfully",
		"success":   true,
		"timestamp": time.Now(),
	})
}

// Delete handles removal of one cached regime
// @Summary Delete the cached regime of a CNPJ
// @Tags Cache
// @Param cnpj path string true "CNPJ"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/{cnpj} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	requestID := c.GetString("request_id")

	cnpj := utils.CleanCNPJ(c.Param("cnpj"))
	if !utils.IsWellFormedCNPJ(cnpj) {
		errorResponse(c, http.StatusBadRequest, "INVALID_CNPJ", "Invalid CNPJ format",
			"CNPJ must contain exactly 14 digits")
		return
	}

	key := registry.CacheKey(cnpj)
	exists, err := h.cacheService.Exists(c.Request.Context(), key)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       cnpj,
			"error":      err.Error(),
		}).Error("Failed to check cache key existence")

		errorResponse(c, http.StatusInternalServerError, "CACHE_CHECK_ERROR", "Internal server error",
			"Failed to check cache")
		return
	}
	if !exists {
		errorResponse(c, http.StatusNotFound, "CNPJ_NOT_IN_CACHE", "Not found", "CNPJ not found in cache")
		return
	}

	if err := h.cacheService.Delete(c.Request.Context(), key); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       cnpj,
			"error":      err.Error(),
		}).Error("Failed to delete CNPJ from cache")

		errorResponse(c, http.StatusInternalServerError, "CACHE_DELETE_ERROR", "Internal server error",
			"Failed to delete from cache")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"cnpj":       cnpj,
	}).Info("Cached regime deleted")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cached regime deleted",
		"cnpj":      utils.FormatCNPJ(cnpj),
		"success":   true,
		"timestamp": time.Now(),
	})
}
