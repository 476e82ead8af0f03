package server

import (
	"context"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBodySizeLimit caps request bodies at 1MB; AI queries are short text.
const DefaultBodySizeLimit int64 = 1 << 20

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey       string        // Optional: Master key for authentication
	MetricsEnabled  bool          // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string        // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   int64         // Max request body size in bytes (default: 1MB)
	CacheTTL        time.Duration // TTL for cached anomaly/recommendation payloads
}

// New creates a new HTTP server
func New(handler *Handler, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	// Build list of paths that skip authentication
	authSkipPaths := []string{"/health"}

	metricsPath := "/metrics"
	if cfg != nil && cfg.MetricsEnabled {
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		authSkipPaths = append(authSkipPaths, metricsPath)
	}

	// Global middleware stack (order matters)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	bodySizeLimit := DefaultBodySizeLimit
	if cfg != nil && cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	// Authentication (skips public paths)
	if cfg != nil && cfg.MasterKey != "" {
		e.Use(AuthMiddleware(cfg.MasterKey, authSkipPaths))
	}

	if cfg != nil && cfg.CacheTTL > 0 {
		handler.cacheTTL = cfg.CacheTTL
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	// API routes
	e.POST("/v1/ai/query", handler.Query)
	e.GET("/v1/ai/anomalies", handler.Anomalies)
	e.GET("/v1/ai/recommendations", handler.Recommendations)
	e.POST("/v1/ai/test-connection", handler.TestConnection)
	e.GET("/v1/ai/usage", handler.Usage)
	e.GET("/v1/ai/settings", handler.GetSettings)
	e.PUT("/v1/ai/settings", handler.UpdateSettings)
	e.GET("/v1/ai/providers", handler.Providers)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
