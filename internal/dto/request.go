package dto

// AttributeRequest submits one transaction for attribution.
type AttributeRequest struct {
	UserID        string                 `json:"user_id"`
	TransactionID string                 `json:"transaction_id" binding:"required" example:"txn_9f8e7d"`
	Email         string                 `json:"email" binding:"required" example:"buyer@example.com"`
	Amount        float64                `json:"amount" binding:"required" example:"4999.00"`
	Currency      string                 `json:"currency" example:"PHP"`
	Platform      string                 `json:"platform" example:"stripe"`
	Kind          string                 `json:"kind" example:"charge.settled"`
	Timestamp     int64                  `json:"timestamp" binding:"required" example:"1723475612"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// BatchRequest runs or enqueues attribution over a time range.
type BatchRequest struct {
	UserID        string `json:"user_id" binding:"required" example:"user_123"`
	From          int64  `json:"from" binding:"required" example:"1723475612"`
	To            int64  `json:"to" binding:"required" example:"1724080412"`
	BatchSize     int    `json:"batch_size,omitempty" example:"100"`
	MaxConcurrent int    `json:"max_concurrent,omitempty" example:"5"`
	RetryAttempts int    `json:"retry_attempts,omitempty" example:"3"`
	Async         bool   `json:"async,omitempty"`
}

// AnalyticsQuery selects the user and window for the analytics endpoints.
type AnalyticsQuery struct {
	UserID string `form:"user_id" binding:"required" example:"user_123"`
	From   int64  `form:"from" binding:"required" example:"1723475612"`
	To     int64  `form:"to" binding:"required" example:"1724080412"`
	Mode   string `form:"mode" example:"sales"`
}
