package routes

import (
	"fmt"

	"gift-exchange-backend/internal/api/handlers"
	"gift-exchange-backend/internal/api/middleware"
	"gift-exchange-backend/internal/auth"
	"gift-exchange-backend/internal/config"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/metrics"
	"gift-exchange-backend/internal/repository"
	"gift-exchange-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SetupRoutes configures all the routes for the application
func SetupRoutes(store repository.Store, cfg *config.Config) (*gin.Engine, error) {
	// Metrics
	m := metrics.New()

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg))
	router.Use(m.Middleware())

	// Initialize validator
	validator := validator.New()

	// Match generator, seeded from crypto/rand
	generator, err := matching.NewSeededGenerator(cfg.MatchMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed match generator: %w", err)
	}
	generator.OnRetry(m.IncMatchRetries)

	// Initialize services
	groupService := service.NewGroupService(store, generator, validator, m)
	membershipService := service.NewMembershipService(store, validator, m, cfg.MaxGroupMembers)

	// Initialize auth
	authService, err := auth.NewAuthService(&auth.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authHandler := auth.NewAuthHandler(authService)
	authMiddleware := auth.NewAuthMiddleware(authService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store, Version)
	groupHandler := handlers.NewGroupHandler(groupService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth routes
	router.POST("/api/auth/validate", authHandler.ValidateToken)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		groups := v1.Group("/groups")
		{
			// Reads work anonymously; a token only unlocks the caller's view
			groups.GET("", authMiddleware.OptionalAuth(), groupHandler.ListGroups)
			groups.GET("/:id", authMiddleware.OptionalAuth(), groupHandler.GetGroup)

			protected := groups.Group("", authMiddleware.RequireAuth())
			{
				protected.POST("", groupHandler.CreateGroup)
				protected.DELETE("/:id", groupHandler.RetireGroup)
				protected.POST("/:id/members", membershipHandler.JoinGroup)
				protected.POST("/:id/assignment", groupHandler.AssignRecipients)
				protected.POST("/:id/reveal", groupHandler.RevealAssignment)
			}
		}
	}

	return router, nil
}
