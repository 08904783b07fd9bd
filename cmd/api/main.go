package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/api/handlers"
	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	rediscache "github.com/parastopwal07/dezerv-backend/internal/cache/redis"
	"github.com/parastopwal07/dezerv-backend/internal/embedding"
	"github.com/parastopwal07/dezerv-backend/internal/ingestion"
	"github.com/parastopwal07/dezerv-backend/internal/llm"
	"github.com/parastopwal07/dezerv-backend/internal/metrics"
	"github.com/parastopwal07/dezerv-backend/internal/middleware/ratelimit"
	"github.com/parastopwal07/dezerv-backend/internal/middleware/security"
	"github.com/parastopwal07/dezerv-backend/internal/query"
	"github.com/parastopwal07/dezerv-backend/internal/records"
	"github.com/parastopwal07/dezerv-backend/internal/storage"
	memorystore "github.com/parastopwal07/dezerv-backend/internal/storage/memory"
	"github.com/parastopwal07/dezerv-backend/internal/storage/mongo"
	"github.com/parastopwal07/dezerv-backend/internal/storage/sqlite"
	"github.com/parastopwal07/dezerv-backend/internal/vector"
	"github.com/parastopwal07/dezerv-backend/internal/vector/flat"
	"github.com/parastopwal07/dezerv-backend/internal/vector/milvus"
	"github.com/parastopwal07/dezerv-backend/pkg/config"
	appLogger "github.com/parastopwal07/dezerv-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting financial risk assessment API server")

	ctx := context.Background()

	var store storage.RecordStore
	switch cfg.Storage.Backend {
	case "memory":
		store = memorystore.NewStore()
	default:
		mongoClient, err := mongo.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			appLogger.Fatal("Failed to create MongoDB client", zap.Error(err))
		}
		defer mongoClient.Close(context.Background())
		store = mongoClient
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache *rediscache.Client
	if cfg.Redis.Enabled {
		cache, err = rediscache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var embedder embedding.Embedder
	switch cfg.Vector.Embedder {
	case "openai":
		var embCache embedding.Cache
		if cache != nil {
			embCache = cache
		}
		embedder = embedding.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.LLM.EmbeddingModel, cfg.Vector.Dimension, embCache)
	default:
		embedder = embedding.NewHashingEmbedder(cfg.Vector.Dimension)
	}

	var index vector.Index
	switch cfg.Vector.Backend {
	case "milvus":
		milvusIndex, err := milvus.NewIndex(ctx, cfg.Milvus.Endpoint, cfg.Milvus.CollectionName, embedder)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus index", zap.Error(err))
		}
		defer milvusIndex.Close()
		index = milvusIndex
	default:
		index = flat.NewIndex(embedder)
	}

	llmClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	synth := assessment.NewSynthesizer(llmClient)

	extractor := records.NewExtractor(records.DefaultPatterns())

	ingestOpts := []ingestion.Option{ingestion.WithHistory(sqliteClient)}
	if cache != nil {
		ingestOpts = append(ingestOpts, ingestion.WithInvalidator(cache))
	}
	processor := ingestion.NewProcessor(store, index, extractor, ingestOpts...)

	engineOpts := []query.Option{query.WithHistory(sqliteClient)}
	if cache != nil {
		engineOpts = append(engineOpts, query.WithCache(cache))
	}
	engine := query.NewEngine(index, synth, cfg.Vector.TopK, engineOpts...)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())

	assessmentHandler := handlers.NewAssessmentHandler(engine)
	ingestHandler := handlers.NewIngestHandler(processor)

	api := app.Group("/api/v1")

	api.Post("/ingest", ingestHandler.HandleIngest)
	api.Get("/risk-assessment", assessmentHandler.HandleRiskAssessment)
	api.Post("/risk-assessment", assessmentHandler.HandleRiskAssessmentQuery)
	api.Post("/portfolio-risk-assessment", assessmentHandler.HandlePortfolioAssessment)
	api.Get("/allocation", assessmentHandler.HandleAllocation)
	api.Get("/assessments", assessmentHandler.HandleAssessmentHistory)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
