package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/sirupsen/logrus"
)

// RegimeHandler handles single CNPJ regime lookups
type RegimeHandler struct {
	regimeService services.RegimeServiceInterface
	logger        *logrus.Logger
}

// NewRegimeHandler creates a new regime handler
func NewRegimeHandler(regimeService services.RegimeServiceInterface, logger *logrus.Logger) *RegimeHandler {
	return &RegimeHandler{
		regimeService: regimeService,
		logger:        logger,
	}
}

// GetRegime handles single CNPJ regime lookup
// @Summary Get the tax regime of a CNPJ
// @Description Classify a CNPJ as SIMEI, Simples Nacional or Regime Normal. Lookup failures are
// @Description reported as a classification, not as an HTTP error.
// @Tags CNPJ
// @Produce json
// @Param cnpj path string true "CNPJ, punctuation allowed" example(01624149000538)
// @Success 200 {object} models.RegimeResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /cnpj/{cnpj}/regime [get]
func (h *RegimeHandler) GetRegime(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")
	cnpjParam := c.Param("cnpj")

	result, err := h.regimeService.Lookup(c.Request.Context(), cnpjParam)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCNPJ) {
			h.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"cnpj":       cnpjParam,
			}).Warn("Invalid CNPJ format")

			errorResponse(c, http.StatusBadRequest, "INVALID_CNPJ", "Invalid CNPJ format",
				"CNPJ must contain exactly 14 digits")
			return
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       cnpjParam,
			"error":      err.Error(),
		}).Error("Failed to resolve regime")

		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error",
			"An unexpected error occurred while processing your request")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"cnpj":       result.CNPJ,
		"kind":       result.Kind,
		"duration":   time.Since(start),
	}).Info("Regime lookup served")

	c.JSON(http.StatusOK, result)
}
