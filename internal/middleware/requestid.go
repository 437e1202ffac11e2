package middleware

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"
)

type requestIDCtxKey struct{}

// clientIDPattern bounds what a client-supplied ID may look like before it
// is written to the logs.
var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID always generates a fresh server-side UUID for the canonical request ID.
// A well-formed client X-Request-ID is logged as "client_request_id"; it is
// never used as the canonical ID. The ID is also attached to the request
// context so code below the handlers can read it with RequestIDFrom.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if clientIDPattern.MatchString(clientID) {
				log.WithFields(logrus.Fields{
					"request_id":        id,
					"client_request_id": clientID,
				}).Debug("client provided request ID mapped to server ID")
				c.Set("client_request_id", clientID)
			} else {
				log.WithField("request_id", id).Debug("ignoring malformed client request ID")
			}
		}

		c.Set(RequestIDKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDCtxKey{}, id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
