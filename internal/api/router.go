// Package api serves the impact analysis over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leagueback/internal/ratelimit"
)

// RouterConfig carries what SetupRouter needs besides the service.
type RouterConfig struct {
	Production         bool
	CORSAllowedOrigins []string
	// Limiter throttles /api routes per client IP; nil disables limiting.
	Limiter ratelimit.Allower
}

// SetupRouter wires middleware and routes.
func SetupRouter(cfg RouterConfig, svc Analyzer, log *zap.Logger) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(CORS(cfg.CORSAllowedOrigins))

	h := NewHandler(svc, log)

	router.GET("/health", HealthCheck)

	api := router.Group("/api")
	if cfg.Limiter != nil {
		api.Use(RateLimit(cfg.Limiter, log))
	}
	{
		api.GET("/account", h.GetAccount)
		api.GET("/match-history", h.GetMatchHistory)
		api.GET("/match-performance", h.GetMatchPerformance)
		api.GET("/stored-matches", h.GetStoredMatches)
		api.GET("/impact-categories", h.GetImpactCategories)
	}

	return router
}
