package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/httputil"
	"github.com/persistorai/wifimap/internal/metrics"
	"github.com/persistorai/wifimap/internal/middleware"
	"github.com/persistorai/wifimap/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeMalformedInput    = "malformed_input"
	ErrCodeValidationError   = "validation_error"
	ErrCodeNotFound          = "not_found"
	ErrCodePayloadTooLarge   = "payload_too_large"
	ErrCodeImportBusy        = "import_busy"
	ErrCodeTransactionFailed = "transaction_failed"
	ErrCodeInternalError     = "internal_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service error onto its HTTP status and code.
// Server-side failures are logged with op; client errors are not.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	var validation *models.ValidationError

	entry := log.WithError(err).WithField("request_id", middleware.RequestIDFrom(c.Request.Context()))

	switch {
	case models.IsMalformedInput(err):
		respondError(c, http.StatusBadRequest, ErrCodeMalformedInput, err.Error())
	case errors.As(err, &validation):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, validation.Error())
	case errors.Is(err, models.ErrNetworkNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "network not found")
	case errors.Is(err, models.ErrNoteNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "note not found")
	case errors.Is(err, models.ErrImportBusy):
		respondError(c, http.StatusServiceUnavailable, ErrCodeImportBusy, "another import is in progress")
	case models.IsTransaction(err):
		entry.Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeTransactionFailed, "transaction failed, no changes were saved")
	default:
		entry.Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
