// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/accounting"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Service answers every accounting endpoint
	Service *accounting.Service

	// Pinger backs the readiness probe; nil for the in-memory store
	Pinger handlers.Pinger

	// StoreName is reported by the health endpoints ("postgres" or "memory")
	StoreName string

	// Version is reported by /health/info
	Version string

	// Production restricts CORS to AllowedOrigins; otherwise any origin may read
	Production     bool
	AllowedOrigins []string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	if corsHandler := newCORS(cfg); corsHandler != nil {
		router.Use(corsHandler)
	}

	healthHandler := handlers.NewHealthHandler(cfg.Pinger, cfg.StoreName, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	accountingHandler := handlers.NewAccountingHandler(handlers.NewBaseHandler(), cfg.Service)
	accountingHandler.RegisterRoutes(v1)

	return router
}

// newCORS returns nil in production without an allowlist: the API is then
// same-origin only.
func newCORS(cfg RouterConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if cfg.Production {
		if len(cfg.AllowedOrigins) == 0 {
			return nil
		}
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AddAllowHeaders(middleware.HeaderRequestID, middleware.HeaderTraceID)
	corsConfig.AddExposeHeaders(middleware.HeaderRequestID, middleware.HeaderTraceID, "Content-Disposition")
	return cors.New(corsConfig)
}
