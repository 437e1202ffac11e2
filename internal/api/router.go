package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/middleware"
	"github.com/persistorai/wifimap/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log            *logrus.Logger
	DB             DatabaseChecker
	Hub            *ws.Hub
	Imports        ImportService
	Networks       NetworkService
	Notes          NoteService
	Exports        ExportService
	History        HistoryService
	CORSOrigins    []string
	APIKey         string
	MaxImportBytes int64
	Version        string
}

// Router-level limits.
const (
	maxJSONBody = 1 << 20 // 1 MB
	rateLimit   = 100     // requests per second per IP
	rateBurst   = 200     // token bucket burst size

	// Imports hold the write lock for the whole merge.
	importsPerMinute = 6
	importBurst      = 3
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader, "Retry-After"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, "api", middleware.Limit{PerSecond: rateLimit, Burst: rateBurst}).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.DB, deps.Hub, log, deps.Version)
	imports := NewImportHandler(deps.Imports, deps.Exports, log, deps.MaxImportBytes)
	networks := NewNetworkHandler(deps.Networks, log)
	notes := NewNoteHandler(deps.Notes, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require the API key when one is configured.
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.APIKeyAuth(deps.APIKey, log, bfGuard))

	// Import and export.
	importLimit := middleware.NewRateLimiter(ctx, "import", middleware.PerMinute(importsPerMinute, importBurst))
	api.POST("/import", importLimit.Handler(), imports.Import)
	api.GET("/export", imports.Export)

	// Import log.
	if deps.History != nil {
		history := NewHistoryHandler(deps.History, log)
		api.GET("/imports", history.Query)
		api.DELETE("/imports", history.Purge)
	}

	// Map views.
	api.GET("/networks", networks.List)
	api.GET("/networks.geojson", networks.GeoJSON)
	api.GET("/stats", networks.Stats)

	// Notes.
	api.GET("/notes/:identity", notes.Get)
	api.PUT("/notes/:identity", middleware.MaxBodySize(maxJSONBody), notes.Put)

	// WebSocket endpoint.
	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
