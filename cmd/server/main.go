package main

import (
	"log"
	"os"

	"gift-exchange-backend/internal/api/routes"
	"gift-exchange-backend/internal/config"
	"gift-exchange-backend/internal/database"
	"gift-exchange-backend/internal/repository"
	"gift-exchange-backend/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "gift-exchange-backend/docs" // This is needed for swag
)

//	@title			Gift Exchange Backend API
//	@version		1.0
//	@description	Backend API for secret gift exchanges: groups, membership, recipient assignment and reveal.

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:7008
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	// Initialize storage
	store, err := openStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize storage:", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router, err := routes.SetupRoutes(store, cfg)
	if err != nil {
		logrus.Fatal("Failed to set up routes:", err)
	}

	// Start server
	port := cfg.Port
	if port == "" {
		port = "7008"
	}

	logrus.WithField("driver", cfg.DatabaseDriver).Infof("Starting server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start server:", err)
	}
}

func openStore(cfg *config.Config) (repository.Store, error) {
	if cfg.UsesMemoryStore() {
		logrus.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := database.Initialize(cfg.DatabaseURL, nil)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	switch level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
