package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/analytics"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/handler"
	"github.com/BarkinBalci/attribution-service/internal/journey"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting attribution API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	db, err := postgres.Connect(&cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	store := postgres.NewRepository(db, log)

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(chClient *clickhouse.Client) {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(chClient)

	pixelStore := clickhouse.NewRepository(chClient, log)
	if err := pixelStore.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize ClickHouse schema", zap.Error(err))
	}

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	finder := attribution.NewSessionFinder(store, pixelStore, log)
	secondary := attribution.NewSecondaryValidator(pixelStore, log)
	overAttr := attribution.NewOverAttributionDetector(store, store, log)
	engine := attribution.NewEngine(finder, secondary, overAttr, store, log)
	batchDefaults := attribution.BatchConfig{
		BatchSize:     cfg.Batch.Size,
		MaxConcurrent: cfg.Batch.MaxConcurrent,
		RetryAttempts: cfg.Batch.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Batch.RetryDelayMs) * time.Millisecond,
	}
	batch := attribution.NewBatchProcessor(engine, store, store, batchDefaults, log)

	reconstructor := journey.NewReconstructor(store, store, pixelStore, log)
	performance := journey.NewPerformanceCalculator(store, store, log)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	analyticsService := analytics.NewService(reconstructor, performance, analytics.NewMemoryCache(), cacheTTL, log)

	attributionService := service.NewAttributionService(engine, batch, sqsClient, log)

	h := handler.NewHandler(attributionService, analyticsService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
