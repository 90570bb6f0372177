package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/platform"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
	"github.com/BarkinBalci/attribution-service/internal/worker"
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

	log.Info("Starting attribution worker",
		zap.String("environment", cfg.Service.Environment))

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
	log.Info("Database schema initialized")

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

	platforms := platform.NewRegistry()

	w := worker.NewWorker(sqsClient, batch, platforms, store, log)

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := pixelStore.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Worker.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Worker starting")

	go func() {
		if err := w.Start(workerCtx); err != nil {
			log.Fatal("Worker error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received, stopping worker")
	cancel()
	log.Info("Worker stopped")
}
