package api

import (
	"context"
	"net/http"
	"time"

	"github.com/esg-reporting-api/internal/config"
	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router. ping reports backing-store
// reachability for the health endpoint; nil means no store to check.
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, ping func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, log)
	catalogHandler := NewCatalogHandler(services, log)
	siteHandler := NewSiteHandler(services, log)
	saisieHandler := NewSaisieHandler(services, log)
	userHandler := NewUserHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(ping))

	// API v1
	v1 := router.Group("/v1")

	// Auth endpoints are the only unauthenticated surface
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := v1.Group("")
	authed.Use(authMiddleware(services.Auth))
	{
		// Indicator catalog: read for everyone, write for admins
		authed.GET("/indicator-types", catalogHandler.ListIndicatorTypes)
		authed.GET("/indicator-types/:id", catalogHandler.GetIndicatorType)
		authed.GET("/emission-posts", catalogHandler.ListEmissionPosts)
		authed.GET("/emission-posts/:id", catalogHandler.GetEmissionPost)

		// Sites and their indicator configuration
		authed.GET("/sites", siteHandler.List)
		authed.GET("/sites/:id", siteHandler.Get)
		authed.GET("/sites/:id/configuration", siteHandler.GetConfig)
		authed.GET("/sites/:id/configuration/resolved", siteHandler.ResolveForEntry)

		// Saisies
		authed.GET("/saisies", saisieHandler.List)
		authed.POST("/saisies", saisieHandler.Create)
		authed.GET("/saisies/:id", saisieHandler.Get)
		authed.PATCH("/saisies/:id", saisieHandler.Update)
		authed.POST("/saisies/:id/validation", saisieHandler.ApplyAction)

		// Dashboard stats and exports
		authed.GET("/stats", saisieHandler.Stats)
		authed.GET("/exports/saisies", exportHandler.StreamSaisies)

		// Admin-only management
		admin := authed.Group("")
		admin.Use(requireRole(models.RoleAdmin))
		{
			admin.POST("/indicator-types", catalogHandler.CreateIndicatorType)
			admin.PUT("/indicator-types/:id", catalogHandler.UpdateIndicatorType)
			admin.POST("/emission-posts", catalogHandler.CreateEmissionPost)
			admin.PUT("/emission-posts/:id", catalogHandler.UpdateEmissionPost)

			admin.POST("/sites", siteHandler.Create)
			admin.PUT("/sites/:id", siteHandler.Update)
			admin.DELETE("/sites/:id", siteHandler.Delete)
			admin.PUT("/sites/:id/configuration", siteHandler.ReplaceConfig)

			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.GET("/users/:id", userHandler.Get)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status, including database reachability
func healthCheck(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "esg-reporting-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
