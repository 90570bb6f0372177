package dto

import "github.com/BarkinBalci/attribution-service/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"transaction_id is required"`
}

// AttributeResponse wraps a persisted verified conversion.
type AttributeResponse struct {
	Conversion *domain.VerifiedConversion `json:"conversion"`
}

// BatchEnqueuedResponse acknowledges an asynchronously queued batch job.
type BatchEnqueuedResponse struct {
	JobID  string `json:"job_id" example:"c7cfc8de-74a5-4c52-9f0e-3a1f6f2f9f11"`
	Status string `json:"status" example:"queued"`
}
