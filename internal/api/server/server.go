package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"video-qa/internal/api/middleware"
	v1routes "video-qa/internal/api/v1/routes"
	"video-qa/internal/api/v1/services"
	"video-qa/internal/app/common"
	"video-qa/internal/app/config"
)

// Config represents API server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// ConfigFrom derives the server configuration from the engine's server section
func ConfigFrom(s config.ServerConfig) Config {
	return Config{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout(),
		WriteTimeout: s.WriteTimeout(),
		IdleTimeout:  2 * s.ReadTimeout(),
		Environment:  s.Environment,
	}
}

// Telemetry is what the server needs from the metrics registry
type Telemetry interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     common.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg Config,
	service services.VideoQAService,
	telemetry Telemetry,
	logger common.Logger,
) *Server {
	if logger == nil {
		logger = common.NopLogger()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if telemetry != nil {
		router.Use(middleware.Metrics(telemetry))
		router.GET("/metrics", gin.WrapH(telemetry.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	serviceContainer := &v1routes.ServiceContainer{
		VideoQAService: service,
	}

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.RegisterRoutes(v1, serviceContainer)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Video QA API",
			"version": "1.0",
			"endpoints": gin.H{
				"health":  "/health",
				"metrics": "/metrics",
				"index":   "/api/v1/videos/:id/index",
				"search":  "/api/v1/videos/:id/search",
				"chat":    "/api/v1/videos/:id/chat",
			},
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		config:     cfg,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
	}
}

// Start serves in the background. The returned channel receives the
// listener error, if any, and is closed once the server stops.
func (s *Server) Start() <-chan error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"environment", s.config.Environment,
	)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", "error", err)
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
