package middleware

import "github.com/gin-gonic/gin"

// baseHeaders apply to every API response. The API serves JSON, GeoJSON and
// SQLite downloads only, so nothing needs to load in a browsing context.
var baseHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Cache-Control", "no-store"},
}

const hstsValue = "max-age=63072000; includeSubDomains"

// SecurityHeaders returns Gin middleware that sets common security response
// headers. HSTS is only sent on TLS connections; browsers ignore it over
// plain HTTP and the default listener is loopback.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range baseHeaders {
			c.Header(h[0], h[1])
		}

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", hstsValue)
		}

		c.Next()
	}
}
