package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/wifimap/internal/metrics"
)

// PrometheusMiddleware records HTTP request duration, count and response
// size. Unmatched routes share one label so scanners probing random paths
// cannot inflate label cardinality. Scrapes of /metrics are not counted.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			c.Next()
			return
		}

		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		c.Next()

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(method, path, status).Inc()

		if size := c.Writer.Size(); size > 0 {
			metrics.ResponseBytes.WithLabelValues(path).Observe(float64(size))
		}
	}
}
