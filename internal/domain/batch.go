package domain

import "time"

// Batch job types carried on the queue.
const (
	JobTypeAttributionBatch = "attribution_batch"
	JobTypePlatformSync     = "platform_sync"
)

// BatchJob is a queued request to attribute a range of transactions for one
// user, or to sync historical platform data. Field names are the queue wire
// format.
type BatchJob struct {
	JobID         string    `json:"job_id"`
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	BatchSize     int       `json:"batch_size,omitempty"`
	MaxConcurrent int       `json:"max_concurrent,omitempty"`
	RetryAttempts int       `json:"retry_attempts,omitempty"`

	// Platform sync jobs only.
	Platform    string `json:"platform,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// BatchProgress is a per-chunk progress snapshot emitted while a batch runs.
type BatchProgress struct {
	Total               int       `json:"total"`
	Processed           int       `json:"processed"`
	Successful          int       `json:"successful"`
	Failed              int       `json:"failed"`
	CurrentBatch        int       `json:"current_batch"`
	TotalBatches        int       `json:"total_batches"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// BatchError records one transaction's terminal failure inside a batch.
type BatchError struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

// BatchResult is the outcome of a batch run. Success means zero failed
// transactions; partial failure is reported here, never raised.
type BatchResult struct {
	Success        bool         `json:"success"`
	Total          int          `json:"total"`
	Skipped        int          `json:"skipped"`
	Processed      int          `json:"processed"`
	Successful     int          `json:"successful"`
	Failed         int          `json:"failed"`
	Errors         []BatchError `json:"errors,omitempty"`
	DurationMillis int64        `json:"duration_ms"`
}
