package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"stocktake/internal/caching"
	"stocktake/internal/handlers"
	"stocktake/internal/jobs/background"
	"stocktake/internal/repositories"
	"stocktake/internal/services"
	"stocktake/pkg/database"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	pdfBucket := os.Getenv("MINIO_PDF_BUCKET")
	if pdfBucket == "" {
		pdfBucket = "shopping-lists"
	}

	// Countable cap; 0 means every low-stock item is walked
	countableLimit := 0
	if raw := os.Getenv("COUNTABLE_LIMIT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			log.Fatalf("Invalid COUNTABLE_LIMIT %q", raw)
		}
		countableLimit = parsed
	}

	// Object storage
	objectStore, err := services.NewMinioStore(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Repositories and services
	itemRepo := repositories.NewItemRepo(pool)
	inventorySvc := services.NewInventoryService(itemRepo, cacheSvc, countableLimit)
	countingSvc := services.NewCountingService(inventorySvc, cacheSvc)
	shoppingSvc := services.NewShoppingListService(objectStore, pdfBucket, cacheSvc)

	if err := inventorySvc.Load(ctx); err != nil {
		log.Fatalf("Failed to load inventory: %v", err)
	}
	log.Printf("Loaded %d inventory items", len(inventorySvc.Items()))

	// Handlers
	itemHandlers := handlers.NewItemHandlers(inventorySvc)
	countingHandlers := handlers.NewCountingHandlers(countingSvc)
	shoppingHandlers := handlers.NewShoppingListHandlers(countingSvc, shoppingSvc, inventorySvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, objectStore, pdfBucket)

	// Background jobs
	scheduler := background.NewJobScheduler(inventorySvc, cacheSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	e := echo.New()
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	// Health endpoints
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealth)

	v1 := e.Group("/v1")

	v1.GET("/summary", shoppingHandlers.GetSummary)

	v1.GET("/items", itemHandlers.ListItems)
	v1.POST("/items", itemHandlers.CreateItem)
	v1.GET("/items/groups", itemHandlers.ListProductGroups)
	v1.GET("/items/:id", itemHandlers.GetItem)
	v1.PUT("/items/:id", itemHandlers.UpdateItem)
	v1.PUT("/items/:id/quantity", itemHandlers.UpdateQuantity)
	v1.DELETE("/items/:id", itemHandlers.DeleteItem)

	v1.POST("/count/sessions", countingHandlers.StartSession)
	v1.GET("/count/sessions/:sessionId", countingHandlers.GetSession)
	v1.POST("/count/sessions/:sessionId/commit", countingHandlers.CommitCount)
	v1.POST("/count/sessions/:sessionId/next", countingHandlers.NextItem)
	v1.POST("/count/sessions/:sessionId/back", countingHandlers.PreviousItem)
	v1.POST("/count/sessions/:sessionId/reset", countingHandlers.ResetSession)
	v1.POST("/count/sessions/:sessionId/items/:id", countingHandlers.CommitSingleItem)
	v1.DELETE("/count/sessions/:sessionId", countingHandlers.EndSession)

	v1.GET("/count/sessions/:sessionId/shopping-list", shoppingHandlers.GetShoppingList)
	v1.GET("/count/sessions/:sessionId/shopping-list/pdf", shoppingHandlers.DownloadPDF)
	v1.POST("/count/sessions/:sessionId/shopping-list/share", shoppingHandlers.SharePDF)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Stocktake server v%s starting on port %s", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", port)))
}
