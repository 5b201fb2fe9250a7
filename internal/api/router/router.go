package router

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/statmon/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// Options holds routes shared by both services
type Options struct {
	// MetricsHandler is mounted at MetricsPath when set
	MetricsHandler http.Handler
	MetricsPath    string
}

// newEngine builds a gin engine with the common middleware, health and metrics routes
func newEngine(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	healthHandler := handler.NewHealthHandler(deps)
	r.GET("/health", healthHandler.Health)

	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.MetricsHandler))

		deps.Logger.Debug("Metrics endpoint enabled", slog.String("path", path))
	}

	return r
}

// SetupMonitorRouter configures the monitor service routes
func SetupMonitorRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := newEngine(deps, opts)

	monitorHandler := handler.NewMonitorHandler(deps)

	// Control surface
	r.GET("/start", monitorHandler.Start)
	r.GET("/stop", monitorHandler.Stop)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List scheduled jobs
			jobs.GET("", monitorHandler.ListJobs)

			// GET /api/v1/jobs/:key - Get one scheduled job
			jobs.GET("/:key", monitorHandler.GetJob)
		}
	}

	return r
}

// SetupCollectorRouter configures the collector service routes
func SetupCollectorRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := newEngine(deps, opts)

	statsHandler := handler.NewStatsHandler(deps)

	v1 := r.Group("/api/v1")
	{
		stats := v1.Group("/stats")
		{
			// GET /api/v1/stats - List stored stats with filtering and pagination
			stats.GET("", statsHandler.ListStats)

			// GET /api/v1/stats/:key/latest - Most recent reading for a key
			stats.GET("/:key/latest", statsHandler.LatestStat)
		}
	}

	return r
}
