package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/wifimap/internal/httputil"
	"github.com/persistorai/wifimap/internal/metrics"
)

// Error codes written by the middleware.
const (
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodePayloadTooLarge = "payload_too_large"
)

// respondError counts the rejection and writes the shared JSON error body.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
