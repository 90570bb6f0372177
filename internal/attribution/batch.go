package attribution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/metrics"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// BatchConfig tunes the batch driver. Zero values fall back to the
// processor's configured defaults.
type BatchConfig struct {
	BatchSize     int
	MaxConcurrent int
	RetryAttempts int
	RetryDelay    time.Duration
}

const (
	defaultBatchSize     = 100
	defaultMaxConcurrent = 5
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// withDefaults fills zero fields from the fallback config.
func (c BatchConfig) withDefaults(fallback BatchConfig) BatchConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = fallback.BatchSize
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = fallback.MaxConcurrent
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = fallback.RetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = fallback.RetryDelay
	}
	return c
}

// ProgressFunc receives a snapshot after every completed chunk.
type ProgressFunc func(progress domain.BatchProgress)

// BatchProcessor drives attribution over many transactions: chunked,
// bounded-concurrency, with per-transaction retry. Chunks run strictly
// sequentially so progress reporting stays monotonic; only transactions
// within a chunk run concurrently.
type BatchProcessor struct {
	engine      *Engine
	txns        repository.TransactionSource
	conversions repository.ConversionRepository
	defaults    BatchConfig
	log         *zap.Logger
}

// NewBatchProcessor creates a new batch processor. Zero fields in defaults
// fall back to the package constants.
func NewBatchProcessor(
	engine *Engine,
	txns repository.TransactionSource,
	conversions repository.ConversionRepository,
	defaults BatchConfig,
	log *zap.Logger,
) *BatchProcessor {
	return &BatchProcessor{
		engine:      engine,
		txns:        txns,
		conversions: conversions,
		defaults: defaults.withDefaults(BatchConfig{
			BatchSize:     defaultBatchSize,
			MaxConcurrent: defaultMaxConcurrent,
			RetryAttempts: defaultRetryAttempts,
			RetryDelay:    defaultRetryDelay,
		}),
		log: log,
	}
}

// Run attributes every not-yet-attributed settled transaction in [from, to].
// A single transaction's failure is retried with exponential backoff and
// then recorded in the result's error list; it never aborts siblings. Only
// the initial transaction listing is fatal.
func (p *BatchProcessor) Run(ctx context.Context, userID string, from, to time.Time, cfg BatchConfig, onProgress ProgressFunc) (*domain.BatchResult, error) {
	cfg = cfg.withDefaults(p.defaults)
	start := time.Now()

	transactions, err := p.txns.ListTransactions(ctx, userID, domain.SettledKinds, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for batch: %w", err)
	}

	pending, skipped, err := p.excludeAttributed(ctx, transactions)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchResult{
		Total:   len(pending),
		Skipped: skipped,
	}

	chunks := chunkTransactions(pending, cfg.BatchSize)

	p.log.Info("Batch attribution starting",
		zap.String("user_id", userID),
		zap.Int("total", result.Total),
		zap.Int("skipped", skipped),
		zap.Int("total_batches", len(chunks)),
		zap.Int("max_concurrent", cfg.MaxConcurrent))

	for i, chunk := range chunks {
		successes, failures := p.processChunk(ctx, userID, chunk, cfg)

		result.Processed += len(chunk)
		result.Successful += successes
		result.Failed += len(failures)
		result.Errors = append(result.Errors, failures...)

		if onProgress != nil {
			onProgress(domain.BatchProgress{
				Total:               result.Total,
				Processed:           result.Processed,
				Successful:          result.Successful,
				Failed:              result.Failed,
				CurrentBatch:        i + 1,
				TotalBatches:        len(chunks),
				EstimatedCompletion: estimateCompletion(start, result.Processed, result.Total),
			})
		}
	}

	elapsed := time.Since(start)
	result.Success = result.Failed == 0
	result.DurationMillis = elapsed.Milliseconds()

	p.log.Info("Batch attribution finished",
		zap.Bool("success", result.Success),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", elapsed))

	return result, nil
}

// excludeAttributed drops transactions that already have a verified
// conversion, so re-running a range is cheap and idempotent.
func (p *BatchProcessor) excludeAttributed(ctx context.Context, transactions []domain.Transaction) ([]domain.Transaction, int, error) {
	if len(transactions) == 0 {
		return nil, 0, nil
	}

	ids := make([]string, 0, len(transactions))
	for _, t := range transactions {
		ids = append(ids, t.ID)
	}

	existing, err := p.conversions.ExistingTransactionIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to pre-check attributed transactions: %w", err)
	}

	pending := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if !existing[t.ID] {
			pending = append(pending, t)
		}
	}

	return pending, len(transactions) - len(pending), nil
}

// processChunk runs one chunk with at most MaxConcurrent transactions in
// flight. Each worker owns its transaction's retries.
func (p *BatchProcessor) processChunk(ctx context.Context, userID string, chunk []domain.Transaction, cfg BatchConfig) (int, []domain.BatchError) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []domain.BatchError
	)

	sem := make(chan struct{}, cfg.MaxConcurrent)

	for _, txn := range chunk {
		wg.Add(1)
		sem <- struct{}{}

		go func(txn domain.Transaction) {
			defer wg.Done()
			defer func() { <-sem }()

			err := p.attributeWithRetry(ctx, userID, txn, cfg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, domain.BatchError{
					TransactionID: txn.ID,
					Error:         err.Error(),
				})
				metrics.BatchTransactionsTotal.WithLabelValues("failed").Inc()
				return
			}
			successes++
			metrics.BatchTransactionsTotal.WithLabelValues("success").Inc()
		}(txn)
	}

	wg.Wait()
	return successes, failures
}

// attributeWithRetry retries a transaction up to RetryAttempts times with
// exponential backoff (delay x attempt number).
func (p *BatchProcessor) attributeWithRetry(ctx context.Context, userID string, txn domain.Transaction, cfg BatchConfig) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		_, err := p.engine.Attribute(ctx, userID, txn)
		if err == nil {
			return nil
		}
		lastErr = err

		p.log.Warn("Attribution attempt failed",
			zap.String("transaction_id", txn.ID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.RetryAttempts),
			zap.Error(err))

		if attempt == cfg.RetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("batch cancelled while retrying %s: %w", txn.ID, ctx.Err())
		case <-time.After(cfg.RetryDelay * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("exhausted %d attempts: %w", cfg.RetryAttempts, lastErr)
}

func chunkTransactions(transactions []domain.Transaction, size int) [][]domain.Transaction {
	var chunks [][]domain.Transaction
	for start := 0; start < len(transactions); start += size {
		end := start + size
		if end > len(transactions) {
			end = len(transactions)
		}
		chunks = append(chunks, transactions[start:end])
	}
	return chunks
}

// estimateCompletion extrapolates the finish time from the observed
// per-transaction rate so far.
func estimateCompletion(start time.Time, processed, total int) time.Time {
	if processed == 0 {
		return time.Time{}
	}
	elapsed := time.Since(start)
	perTxn := elapsed / time.Duration(processed)
	remaining := total - processed
	return time.Now().Add(perTxn * time.Duration(remaining))
}
