// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "kumoney/internal/docs" // Import swagger docs
	apperrors "kumoney/internal/errors"
	"kumoney/internal/handlers"
	"kumoney/internal/metrics"
	"kumoney/internal/middleware"
	"kumoney/internal/services"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth           services.AuthServicer
	Subscriptions  services.SubscriptionServicer
	Catalog        services.PackageCataloger
	Tokens         services.TokenServicer
	Audit          services.AuditServicer
	InternalAPIKey string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(deps Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Subscriptions, deps.Audit)
	packageHandler := handlers.NewPackageHandler(deps.Catalog)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Subscriptions, deps.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Code:    apperrors.ErrNotFound.Code,
			Message: apperrors.ErrNotFound.Message,
		}})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/verify", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/google", authHandler.GoogleAuth)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", middleware.AuthMiddleware(deps.Tokens), authHandler.GetMe)

	packages := v1.Group("/packages")
	packages.GET("", packageHandler.ListPackages)
	packages.GET("/:tier", packageHandler.GetPackage)

	internal := v1.Group("/internal")
	internal.Use(middleware.APIKeyMiddleware(deps.InternalAPIKey))
	internal.POST("/reconcile", maintenanceHandler.ReconcileSubscriptions)
	internal.GET("/audit-logs", maintenanceHandler.ListAuditLogs)

	return router
}
