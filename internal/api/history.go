package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/models"
)

// Import log paging and retention bounds.
const (
	defaultHistoryLimit  = 50
	maxHistoryLimit      = 500
	defaultRetentionDays = 90
	maxRetentionDays     = 3650
)

// HistoryHandler serves the import log endpoints.
type HistoryHandler struct {
	svc HistoryService
	log *logrus.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(svc HistoryService, log *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// Query handles GET /api/v1/imports.
func (h *HistoryHandler) Query(c *gin.Context) {
	opts := models.ImportHistoryQuery{
		Status: c.Query("status"),
		Origin: c.Query("origin"),
		Limit:  parseInt(c.Query("limit"), defaultHistoryLimit),
		Offset: parseOffset(c.Query("offset")),
	}

	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.svc.QueryImports(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, h.log, "querying import log", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"has_more": hasMore,
	})
}

// Purge handles DELETE /api/v1/imports.
func (h *HistoryHandler) Purge(c *gin.Context) {
	retentionDays := defaultRetentionDays
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 || v > maxRetentionDays {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
				"retention_days must be an integer between 1 and 3650")
			return
		}
		retentionDays = v
	}

	deleted, err := h.svc.PurgeImports(c.Request.Context(), time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		respondServiceError(c, h.log, "purging import log", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}

// parseInt returns the positive integer in s, or fallback.
func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}

	return v
}

// parseOffset returns the non-negative offset in s, or zero.
func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	return v
}
