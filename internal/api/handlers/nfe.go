package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/nfe-regime/internal/export"
	"github.com/nexconsult/nfe-regime/internal/lookup"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/nexconsult/nfe-regime/internal/nfe"
	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/sirupsen/logrus"
)

// NFeHandler handles access key parsing, batch lookups and exports
type NFeHandler struct {
	batchService services.BatchServiceInterface
	logger       *logrus.Logger
	now          func() time.Time
}

// NewNFeHandler creates a new NF-e handler
func NewNFeHandler(batchService services.BatchServiceInterface, logger *logrus.Logger) *NFeHandler {
	return &NFeHandler{
		batchService: batchService,
		logger:       logger,
		now:          time.Now,
	}
}

func errorResponse(c *gin.Context, status int, code, title, message string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// ParseKey handles access key decomposition
// @Summary Parse an NF-e access key
// @Description Split a 44-digit access key into its fields
// @Tags NF-e
// @Produce json
// @Param key path string true "Access key (44 digits)" example(51250501624149000538550010001098421003295263)
// @Success 200 {object} models.ParseResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /nfe/parse/{key} [get]
func (h *NFeHandler) ParseKey(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !nfe.IsValidKey(key) {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"key":        key,
		}).Warn("Invalid access key")

		errorResponse(c, http.StatusBadRequest, "INVALID_KEY", "Invalid access key",
			fmt.Sprintf("Access key must contain exactly %d digits", nfe.KeyLength))
		return
	}

	parsed := nfe.Parse(key)
	c.JSON(http.StatusOK, models.ParseResponse{
		ChaveAcesso: key,
		Campos:      parsed,
		Documento:   parsed.Model(),
	})
}

// collectKeys returns the trimmed non-blank keys of a request
func collectKeys(req models.BatchRequest) []string {
	if len(req.Keys) == 0 {
		return lookup.SplitKeys(req.Text)
	}

	keys := make([]string, 0, len(req.Keys))
	for _, key := range req.Keys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Batch handles paced regime lookups for a list of access keys
// @Summary Resolve the tax regime of every access key
// @Description Keys are processed in order, one registry request at a time. With stream=true the response is
// @Description a Server-Sent Events stream of "progress" events followed by one "result" event.
// @Tags NF-e
// @Accept json
// @Produce json
// @Produce text/event-stream
// @Param request body models.BatchRequest true "Keys as a list or as newline-separated text"
// @Param stream query bool false "Stream progress as Server-Sent Events"
// @Success 200 {object} models.BatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.BatchTooLargeResponse
// @Router /nfe/batch [post]
func (h *NFeHandler) Batch(c *gin.Context) {
	requestID := c.GetString("request_id")

	var request models.BatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid batch request format")

		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
		return
	}

	keys := collectKeys(request)
	if len(keys) == 0 {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "No keys provided",
			"Send the access keys in \"keys\" or as lines of \"text\"")
		return
	}

	if limit := h.batchService.MaxKeys(); len(keys) > limit {
		h.batchTooLarge(c, &lookup.BatchTooLargeError{Count: len(keys), Max: limit})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"keys":       len(keys),
	}).Info("Processing batch regime lookup")

	if c.Query("stream") == "true" {
		h.streamBatch(c, keys)
		return
	}

	result, err := h.batchService.Run(c.Request.Context(), keys, nil)
	if err != nil {
		h.batchFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewBatchResponse(result))
}

func (h *NFeHandler) streamBatch(c *gin.Context, keys []string) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	result, err := h.batchService.Run(c.Request.Context(), keys, func(p lookup.Progress) {
		c.SSEvent("progress", models.ProgressEvent{
			Index:       p.Index,
			Total:       p.Total,
			ElapsedMs:   p.Elapsed.Milliseconds(),
			RemainingMs: p.Remaining().Milliseconds(),
		})
		c.Writer.Flush()
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Warn("Batch stream aborted")

		c.SSEvent("error", models.ErrorResponse{
			Error:     "Batch aborted",
			Message:   err.Error(),
			Code:      "BATCH_ABORTED",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		c.Writer.Flush()
		return
	}

	c.SSEvent("result", models.NewBatchResponse(result))
	c.Writer.Flush()
}

func (h *NFeHandler) batchTooLarge(c *gin.Context, err *lookup.BatchTooLargeError) {
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"count":      err.Count,
		"max":        err.Max,
	}).Warn("Batch too large")

	c.JSON(http.StatusRequestEntityTooLarge, models.BatchTooLargeResponse{
		ErrorResponse: models.ErrorResponse{
			Error:     "Batch too large",
			Message:   fmt.Sprintf("%d keys received, the maximum is %d", err.Count, err.Max),
			Code:      "BATCH_TOO_LARGE",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		},
		Count: err.Count,
		Max:   err.Max,
	})
}

func (h *NFeHandler) batchFailed(c *gin.Context, err error) {
	var tooLarge *lookup.BatchTooLargeError
	if errors.As(err, &tooLarge) {
		h.batchTooLarge(c, tooLarge)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"error":      err.Error(),
	}).Error("Batch regime lookup failed")

	// 499 is what proxies log for a client that went away
	status := http.StatusInternalServerError
	if c.Request.Context().Err() != nil {
		status = 499
	}
	errorResponse(c, status, "BATCH_ERROR", "Batch aborted", err.Error())
}

// Export handles downloads of batch results
// @Summary Export batch results
// @Description Render rows of a previous batch as XLSX or UTF-8 CSV
// @Tags NF-e
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param format path string true "File format" Enums(xlsx, csv)
// @Param request body models.ExportRequest true "Rows to export"
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse
// @Router /nfe/export/{format} [post]
func (h *NFeHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.Param("format"))

	var write func(io.Writer, []models.ResultRow) error
	var contentType string
	switch format {
	case "xlsx":
		write, contentType = export.WriteXLSX, export.ContentTypeXLSX
	case "csv":
		write, contentType = export.WriteCSV, export.ContentTypeCSV
	default:
		errorResponse(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Unsupported format",
			"Format must be xlsx or csv")
		return
	}

	var request models.ExportRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, request.Rows); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"format":     format,
			"error":      err.Error(),
		}).Error("Failed to export results")

		errorResponse(c, http.StatusInternalServerError, "EXPORT_ERROR", "Export failed",
			"Failed to render the results file")
		return
	}

	filename := export.FileName(export.FilePrefix, format, h.now())
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"file":       filename,
		"rows":       len(request.Rows),
	}).Info("Results exported")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
