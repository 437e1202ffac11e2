package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// rejectFloor is the minimum latency of a 401 so a bad key and a missing
// header look the same from outside.
const rejectFloor = 50 * time.Millisecond

// APIKeyHeader is accepted as an alternative to a bearer token for tools
// that cannot set Authorization.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth requires the configured key on every request, as either
// "Authorization: Bearer <key>" or an X-API-Key header. An empty apiKey
// disables the check. guard may be nil; when set, bad keys count against
// the client address and a good key clears its record.
func APIKeyAuth(apiKey string, log *logrus.Logger, guard *BruteForceGuard) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) { c.Next() }
	}

	want := sha256.Sum256([]byte(apiKey))

	return func(c *gin.Context) {
		start := time.Now()

		key := presentedKey(c)
		if key == "" {
			reject(c, start, "missing api key")

			return
		}

		got := sha256.Sum256([]byte(key))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			log.WithFields(logrus.Fields{
				"client_ip":  c.ClientIP(),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"user_agent": c.Request.UserAgent(),
				"request_id": c.GetString(RequestIDKey),
			}).Warn("authentication failed: invalid api key")

			if guard != nil {
				guard.RecordFailure(c.ClientIP())
			}

			reject(c, start, "invalid api key")

			return
		}

		if guard != nil {
			guard.Reset(c.ClientIP())
		}

		c.Next()
	}
}

func reject(c *gin.Context, start time.Time, msg string) {
	if wait := rejectFloor - time.Since(start); wait > 0 {
		time.Sleep(wait)
	}

	c.Header("WWW-Authenticate", `Bearer realm="wifimap"`)
	respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, msg)
}

func presentedKey(c *gin.Context) string {
	if tok := ExtractBearerToken(c); tok != "" {
		return tok
	}

	return strings.TrimSpace(c.GetHeader(APIKeyHeader))
}

// ExtractBearerToken returns the token of an Authorization header using the
// Bearer scheme. The scheme name is matched case-insensitively.
func ExtractBearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
