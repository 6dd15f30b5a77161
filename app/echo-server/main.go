package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusMarket/app/echo-server/router"
	"campusMarket/business/recommend"
	"campusMarket/internal/middleware"
	"campusMarket/internal/repository/embedding"
	"campusMarket/internal/repository/mistral"
	mysqlRepo "campusMarket/internal/repository/mysql"
	"campusMarket/internal/repository/qdrant"
	"campusMarket/internal/repository/rediscache"
	"campusMarket/internal/rest"
	"campusMarket/pkg/config"
	"campusMarket/pkg/database"
	redisdb "campusMarket/pkg/database/redis"
	"campusMarket/pkg/logger"
	"campusMarket/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting CampusMarket Recommendation API", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitMySQL(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	staticTable, err := recommend.LoadStaticWeightTable(cfg.Recommend.CSVPath)
	if err != nil {
		logger.Fatal("Failed to load static weight table", "error", err)
	}
	logger.Info("Static weight table loaded", "path", cfg.Recommend.CSVPath)

	// Optional collaborators: the pipeline degrades rather than refusing
	// to start when one of them is unreachable.
	var vectorIndex recommend.VectorIndex
	if qdrantClient, err := qdrant.NewClient(cfg); err != nil {
		logger.Warn("Qdrant unavailable, falling back to relational retrieval", "error", err)
	} else {
		vectorIndex = qdrantClient
		logger.Info("Qdrant connected", "collection", cfg.Qdrant.Collection)
	}

	var embedder recommend.Embedder
	if cfg.Embedding.Endpoint != "" {
		embedder = embedding.NewService(cfg)
	} else {
		logger.Warn("Embedding endpoint not configured, semantic search disabled")
	}

	var chatModel recommend.ChatModel
	if cfg.Mistral.APIKey != "" {
		chatModel = mistral.NewClient(cfg)
	} else {
		logger.Warn("Mistral API key not configured, LLM reranking disabled")
	}

	// Init repo
	var (
		userRepo    recommend.UserRepository    = mysqlRepo.NewUserRepository(db)
		weightsRepo recommend.WeightsRepository = mysqlRepo.NewWeightsRepository(db)
		visitRepo   recommend.VisitRepository   = mysqlRepo.NewVisitRepository(db)
	)
	itemRepo := mysqlRepo.NewItemRepository(db)

	if cfg.Redis.Host != "" {
		redisClient, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, profile caching disabled", "error", err)
		} else {
			defer redisdb.CloseRedisClient(redisClient)
			userRepo = rediscache.NewUserRepository(userRepo, redisClient)
			weightsRepo = rediscache.NewWeightsRepository(weightsRepo, redisClient)
			visitRepo = rediscache.NewVisitRepository(visitRepo, redisClient)
			logger.Info("Redis connected, profile caching enabled")
		}
	}

	// Init service
	recommendCfg := recommend.DefaultConfig()
	rerankCache := recommend.NewRerankCache(recommendCfg.CacheTTL)
	recommendService := recommend.NewService(
		recommendCfg,
		staticTable,
		userRepo,
		weightsRepo,
		visitRepo,
		itemRepo,
		vectorIndex,
		embedder,
		chatModel,
		rerankCache,
		cfg.Server.BaseURL,
		cfg.Recommend.ImageBaseDir,
	)

	// Init handler
	recommendHandler := rest.NewRecommendHandler(recommendService)
	healthHandler := rest.NewHealthHandler(vectorIndex != nil, chatModel != nil)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Serve catalog thumbnails; response items rewrite local paths onto
	// this route. A missing directory just 404s individual images.
	e.Static("/static/images", cfg.Recommend.ImageBaseDir)

	// Setup routes
	api := e.Group("/api")
	router.SetupRecommendRoutes(api, recommendHandler)
	router.SetupHealthRoutes(api, healthHandler)
	router.SetupRootRoute(e, cfg)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
