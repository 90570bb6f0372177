package worker

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Envelope wraps a batch job with acknowledgment callbacks. Ack removes the
// job from the queue; Nack leaves it for redelivery.
type Envelope struct {
	Job  *domain.BatchJob
	ack  func(context.Context) error
	nack func(context.Context) error
}

// NewEnvelope creates a new job envelope
func NewEnvelope(job *domain.BatchJob, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Job:  job,
		ack:  ack,
		nack: nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
