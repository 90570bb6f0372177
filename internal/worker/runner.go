package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/metrics"
	"github.com/BarkinBalci/attribution-service/internal/platform"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// Runner executes parsed batch jobs. A job acks when its work completed
// (even with per-transaction failures, which are already recorded on the
// result) and nacks only on batch-level failure so the queue redelivers it.
type Runner struct {
	batch     *attribution.BatchProcessor
	platforms *platform.Registry
	spend     repository.SpendWriter
	log       *zap.Logger
}

// NewRunner creates a new job runner
func NewRunner(batch *attribution.BatchProcessor, platforms *platform.Registry, spend repository.SpendWriter, log *zap.Logger) *Runner {
	return &Runner{
		batch:     batch,
		platforms: platforms,
		spend:     spend,
		log:       log,
	}
}

// Start consumes job envelopes until the input channel closes.
func (r *Runner) Start(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Job runner shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				r.log.Info("Job runner input channel closed")
				return
			}
			r.runJob(ctx, envelope)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, envelope *Envelope) {
	job := envelope.Job
	log := r.log.With(
		zap.String("job_id", job.JobID),
		zap.String("type", job.Type),
		zap.String("user_id", job.UserID))

	log.Info("Job starting")

	var err error
	switch job.Type {
	case domain.JobTypeAttributionBatch:
		err = r.runAttributionBatch(ctx, job, log)
	case domain.JobTypePlatformSync:
		err = r.runPlatformSync(ctx, job, log)
	}

	if err != nil {
		log.Error("Job failed, leaving on queue for redelivery", zap.Error(err))
		metrics.BatchJobsTotal.WithLabelValues("failed").Inc()
		if nackErr := envelope.Nack(ctx); nackErr != nil {
			log.Error("Failed to nack job", zap.Error(nackErr))
		}
		return
	}

	metrics.BatchJobsTotal.WithLabelValues("completed").Inc()
	if ackErr := envelope.Ack(ctx); ackErr != nil {
		log.Error("Failed to ack completed job", zap.Error(ackErr))
	}
}

func (r *Runner) runAttributionBatch(ctx context.Context, job *domain.BatchJob, log *zap.Logger) error {
	cfg := attribution.BatchConfig{
		BatchSize:     job.BatchSize,
		MaxConcurrent: job.MaxConcurrent,
		RetryAttempts: job.RetryAttempts,
	}

	result, err := r.batch.Run(ctx, job.UserID, job.From, job.To, cfg, func(p domain.BatchProgress) {
		log.Info("Batch progress",
			zap.Int("processed", p.Processed),
			zap.Int("total", p.Total),
			zap.Int("failed", p.Failed),
			zap.Int("current_batch", p.CurrentBatch),
			zap.Int("total_batches", p.TotalBatches),
			zap.Time("estimated_completion", p.EstimatedCompletion))
	})
	if err != nil {
		return err
	}

	log.Info("Batch job finished",
		zap.Bool("success", result.Success),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int64("duration_ms", result.DurationMillis))

	return nil
}

func (r *Runner) runPlatformSync(ctx context.Context, job *domain.BatchJob, log *zap.Logger) error {
	fetcher, err := r.platforms.Lookup(job.Platform)
	if err != nil {
		return err
	}

	records, err := fetcher.FetchHistoricalData(ctx, job.AccessToken, job.From, job.To)
	if err != nil {
		return err
	}

	if err := r.spend.InsertSpendRecords(ctx, records); err != nil {
		return err
	}

	log.Info("Platform sync finished",
		zap.String("platform", job.Platform),
		zap.Int("record_count", len(records)))

	return nil
}
