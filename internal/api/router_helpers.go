package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/middleware"
	"github.com/persistorai/wifimap/internal/ws"
)

// wsHandler upgrades the request and attaches the connection to hub.
// Clients may resume with ?last_event_id=N and narrow delivery with
// ?topics=import.completed,note.updated before sending any frame.
func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resume *uint64

		if raw := c.Query("last_event_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "last_event_id must be a non-negative integer")

				return
			}

			resume = &id
		}

		topics := splitTopics(c.Query("topics"))

		// CORS origins double as WebSocket origin patterns.
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Warn("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn)
		if topics != nil {
			client.Subscribe(topics)
		}

		hub.Register(client)

		if resume != nil {
			client.Resume(*resume)
		}

		// Stop the pumps on server shutdown or when the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		defer wsCancel()

		stop := context.AfterFunc(c.Request.Context(), wsCancel)
		defer stop()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
	}
}

func splitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var topics []string

	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}

	return topics
}

// quietPaths are polled by probes and scrapers and only logged at debug.
var quietPaths = map[string]bool{
	"/api/v1/health": true,
	"/api/v1/ready":  true,
	"/metrics":       true,
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"bytes":       c.Writer.Size(),
			"client":      c.ClientIP(),
		})

		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			entry = entry.WithField("request_id", rid)
		}

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		entry.Log(requestLogLevel(c.Request.URL.Path, status), "request")
	}
}

func requestLogLevel(path string, status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel
	case quietPaths[path]:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
