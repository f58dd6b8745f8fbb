// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"engla_backend/internal/auth"
	"engla_backend/internal/config"
	"engla_backend/internal/jobs"
	"engla_backend/internal/middleware"
	"engla_backend/internal/property"
	"engla_backend/internal/requestctx"
	"engla_backend/internal/user"
	"engla_backend/internal/webhook"
)

const stripeWebhookPath = "/api/v1/webhooks/stripe"

// Server holds the HTTP surface and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	db       *gorm.DB
	cache    *redis.Client
	verifier auth.Verifier

	rateLimiter    *middleware.RateLimiter
	userCleanupJob *jobs.UserCleanupJob

	startedAt time.Time
}

// NewServer wires the middleware pipeline and the route tree.
//
// Pipeline order matters: the request logger sits outermost so its completion
// log records the status the client actually received, including error
// envelopes; the error handler comes next so every later middleware and
// handler can surface errors through c.Error, with recovery directly inside
// it so recovered panics are classified on the way out.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	webhookHandler *webhook.Handler,
	userCleanupJob *jobs.UserCleanupJob,
	verifier auth.Verifier,
	userRepo user.Repository,
	db *gorm.DB,
	cacheClient *redis.Client,
) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppEnv == config.EnvTest {
		gin.SetMode(gin.TestMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// The logger binds the trace store before the error handler runs, and
	// the error handler writes its envelope before the logger reads the
	// final status. Recovery registers last of the three so a recovered
	// panic still passes back through classification on the way out.
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorHandler(cfg))
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware(cfg))
	router.Use(middleware.QueryDeduplication())
	router.Use(middleware.BodyLimit(cfg, stripeWebhookPath))

	rateLimiter := middleware.NewRateLimiter(cfg)

	startedAt := time.Now()

	// System routes outside the versioned API.
	router.GET("/health", healthHandler(cfg, startedAt))
	router.GET("/favicon.ico", noContentHandler)
	router.GET("/robots.txt", noContentHandler)
	router.GET("/.well-known/*any", noContentHandler)

	v1 := router.Group("/api/v1", rateLimiter.Middleware())

	// Login sits behind token verification only: its job is to create the
	// local record the full barrier requires.
	authGroup := v1.Group("/authentication", middleware.RequireToken(verifier))
	authHandler.RegisterRoutes(authGroup)

	protected := v1.Group("", middleware.RequireUser(verifier, userRepo))
	userHandler.RegisterRoutes(protected)

	// Webhooks carry their own signature authentication.
	webhookGroup := v1.Group("/webhooks")
	webhookHandler.RegisterRoutes(webhookGroup)

	router.NoRoute(middleware.NotFoundHandler())
	router.NoMethod(middleware.MethodNotAllowedHandler())

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		router:         router,
		cfg:            cfg,
		logger:         logger,
		db:             db,
		cache:          cacheClient,
		verifier:       verifier,
		rateLimiter:    rateLimiter,
		userCleanupJob: userCleanupJob,
		startedAt:      startedAt,
	}, nil
}

// Router exposes the gin engine for HTTP-level tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Logger exposes the process logger for shutdown wiring in main.
func (s *Server) Logger() *zap.Logger {
	return s.logger
}

// DB exposes the database handle for startup health checks and shutdown.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// Cache exposes the Redis handle for startup health checks and shutdown.
func (s *Server) Cache() *redis.Client {
	return s.cache
}

// Migrate reconciles the schema with the registered models.
func (s *Server) Migrate() error {
	return s.db.AutoMigrate(
		&user.User{},
		&property.Property{},
		&property.PropertyImage{},
		&property.Amenity{},
	)
}

// StartWorker runs the cron scheduler only; the worker role serves no HTTP.
func (s *Server) StartWorker() error {
	return s.userCleanupJob.SetupAndStart()
}

// Start runs the HTTP server until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("environment", s.cfg.AppEnv),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	s.logger.Info("HTTP server stopped accepting connections")
	return nil
}

// Shutdown stops accepting new connections and drains in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.userCleanupJob != nil {
		s.userCleanupJob.Stop()
	}
	if closer, ok := s.verifier.(interface{ Close() }); ok {
		closer.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigin == "" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigin, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", requestctx.TraceIDHeader, webhook.SignatureHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", requestctx.TraceIDHeader}
	return cors.New(corsConfig)
}

func healthHandler(cfg *config.Config, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "UP",
			"uptime":      time.Since(startedAt).Round(time.Second).String(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.AppEnv,
		})
	}
}

func noContentHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
