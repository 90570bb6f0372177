package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/queue"
)

// Attributor is the write-side attribution surface the HTTP layer consumes.
type Attributor interface {
	Attribute(ctx context.Context, userID string, txn domain.Transaction) (*domain.VerifiedConversion, error)
	RunBatch(ctx context.Context, userID string, from, to time.Time, cfg attribution.BatchConfig) (*domain.BatchResult, error)
	EnqueueBatch(ctx context.Context, userID string, from, to time.Time, cfg attribution.BatchConfig) (string, error)
}

// AttributionService validates requests and drives the engine and batch
// processor. Asynchronous work goes through the job queue so completion is
// always tracked.
type AttributionService struct {
	engine *attribution.Engine
	batch  *attribution.BatchProcessor
	jobs   queue.JobPublisher
	log    *zap.Logger
}

// NewAttributionService creates a new attribution service
func NewAttributionService(
	engine *attribution.Engine,
	batch *attribution.BatchProcessor,
	jobs queue.JobPublisher,
	log *zap.Logger,
) *AttributionService {
	return &AttributionService{
		engine: engine,
		batch:  batch,
		jobs:   jobs,
		log:    log,
	}
}

// Attribute scores and persists a single transaction.
func (s *AttributionService) Attribute(ctx context.Context, userID string, txn domain.Transaction) (*domain.VerifiedConversion, error) {
	if strings.TrimSpace(txn.ID) == "" {
		return nil, fmt.Errorf("transaction_id is required")
	}
	if strings.TrimSpace(txn.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}
	if txn.Timestamp.IsZero() {
		return nil, fmt.Errorf("timestamp is required")
	}

	return s.engine.Attribute(ctx, userID, txn)
}

// RunBatch attributes a time range synchronously, reporting chunk progress
// to the log.
func (s *AttributionService) RunBatch(ctx context.Context, userID string, from, to time.Time, cfg attribution.BatchConfig) (*domain.BatchResult, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	return s.batch.Run(ctx, userID, from, to, cfg, func(p domain.BatchProgress) {
		s.log.Info("Batch progress",
			zap.String("user_id", userID),
			zap.Int("processed", p.Processed),
			zap.Int("total", p.Total),
			zap.Int("current_batch", p.CurrentBatch),
			zap.Int("total_batches", p.TotalBatches))
	})
}

// EnqueueBatch publishes an attribution batch job and returns its id.
func (s *AttributionService) EnqueueBatch(ctx context.Context, userID string, from, to time.Time, cfg attribution.BatchConfig) (string, error) {
	if err := validateRange(from, to); err != nil {
		return "", err
	}

	job := &domain.BatchJob{
		JobID:         uuid.NewString(),
		Type:          domain.JobTypeAttributionBatch,
		UserID:        userID,
		From:          from,
		To:            to,
		BatchSize:     cfg.BatchSize,
		MaxConcurrent: cfg.MaxConcurrent,
		RetryAttempts: cfg.RetryAttempts,
	}

	if err := s.jobs.PublishJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue batch job: %w", err)
	}

	return job.JobID, nil
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("from and to are required")
	}
	if from.After(to) {
		return fmt.Errorf("from must not be after to")
	}
	return nil
}
