package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-import-service/internal/clients"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/events"
	"catalog-import-service/internal/handlers"
	"catalog-import-service/internal/middleware"
	"catalog-import-service/internal/repository"
)

// @title Catalog Import API
// @version 1.0.0
// @description Product catalog import and reconciliation service: delimited uploads, Excel workbooks and shared remote spreadsheets.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8094
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository
	catalogRepo := repository.NewCatalogRepository(db, redisClient, cfg.AssetDir)

	// Initialize event publisher only if NATS_URL is set
	eventsPublisher, err := events.NewPublisher(logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		eventsPublisher = nil
	} else if eventsPublisher != nil {
		log.Println("✓ Events publisher initialized (NATS connected)")
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer eventsPublisher.Close()

	// Initialize clients
	sheetsClient := clients.NewSheetsClient(logger)

	// Initialize handlers
	importHandler := handlers.NewImportHandler(catalogRepo, sheetsClient, eventsPublisher, logger, cfg)
	filesHandler := handlers.NewFilesHandler(catalogRepo, logger)
	productsHandler := handlers.NewProductsHandler(catalogRepo, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	// API routes
	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.POST("/import", importHandler.ImportFile)
			catalog.POST("/import/remote", importHandler.ImportRemote)
			catalog.GET("/import/template", importHandler.GetImportTemplate)
			catalog.GET("/import/settings", importHandler.GetSettings)
			catalog.PUT("/import/settings", importHandler.UpdateSettings)

			catalog.POST("/images/upload", filesHandler.UploadImages)

			catalog.GET("/products", productsHandler.ListProducts)
			catalog.GET("/products/:id", productsHandler.GetProduct)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog import service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-import-service...")
}
