// Package web provides the HTTP server for the profile generation service.
// It wires the JSON API routes, per-IP rate limiting and admin authentication
// on a Gin router in front of a timeout-configured http.Server.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warpgen/internal/api"
	"warpgen/internal/auth"
)

// Server represents the HTTP server for the generation service.
// It exposes the public generation surface and the bearer-protected admin
// endpoints.
type Server struct {
	router      *gin.Engine   // Gin HTTP router
	server      *http.Server  // HTTP server instance
	config      *ServerConfig // Server configuration
	generateAPI *api.GenerateAPI
	statsAPI    *api.StatsAPI
	adminAPI    *api.AdminAPI
	authManager *auth.AuthManager
	logger      *slog.Logger
}

// ServerConfig represents configuration options for the web server.
type ServerConfig struct {
	Addr         string        `json:"addr"`          // Listen address (default ":8080")
	ReadTimeout  time.Duration `json:"read_timeout"`  // HTTP read timeout
	WriteTimeout time.Duration `json:"write_timeout"` // HTTP write timeout
	Debug        bool          `json:"debug"`         // Enable debug mode
}

// NewServer creates a new web server. Zero config fields fall back to
// defaults; probing plus registration can take several seconds, hence the
// generous write timeout.
func NewServer(config *ServerConfig, generateAPI *api.GenerateAPI, statsAPI *api.StatsAPI, adminAPI *api.AdminAPI, authManager *auth.AuthManager, logger *slog.Logger) *Server {
	if config == nil {
		config = &ServerConfig{}
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}

	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		router:      gin.New(),
		config:      config,
		generateAPI: generateAPI,
		statsAPI:    statsAPI,
		adminAPI:    adminAPI,
		authManager: authManager,
		logger:      logger.With("component", "web"),
	}

	server.setupRoutes()
	server.setupHTTPServer()

	return server
}

// Start starts the HTTP server and blocks until it stops listening.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.config.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server, waiting for in-flight
// requests to complete. It blocks until shutdown finishes or ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// setupRoutes configures all HTTP routes and middleware for the server.
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())

	general := NewRateLimiter(generalRateLimit, rateWindow)
	generate := NewRateLimiter(generateRateLimit, rateWindow)
	s.router.Use(general.Middleware())

	s.router.GET("/health", s.healthHandler)

	authMiddleware := auth.NewAuthMiddleware(s.authManager)

	apiV1 := s.router.Group("/api/v1")
	{
		// Public endpoints
		apiV1.GET("/endpoints", s.generateAPI.Endpoints)
		apiV1.POST("/generate", generate.Middleware(), s.generateAPI.Generate)
		apiV1.GET("/stats", s.statsAPI.PublicStats)
		apiV1.POST("/admin/login", s.adminAPI.Login)

		// Protected admin endpoints
		protected := apiV1.Group("/admin")
		protected.Use(authMiddleware.RequireAuth())
		{
			protected.POST("/refresh", s.adminAPI.RefreshToken)
			protected.GET("/stats", s.statsAPI.AdminStats)
			protected.POST("/stats/sync", s.statsAPI.SyncStats)
		}
	}
}

// setupHTTPServer configures the HTTP server with timeouts and other settings.
func (s *Server) setupHTTPServer() {
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

// healthHandler answers liveness checks.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// corsMiddleware sets up CORS headers for cross-origin requests.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
