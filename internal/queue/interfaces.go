package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// JobPublisher defines the interface for publishing batch jobs to a queue.
// Background work goes through here instead of fire-and-forget goroutines,
// so every job has tracked completion.
type JobPublisher interface {
	PublishJob(ctx context.Context, job *domain.BatchJob) error
}

// JobConsumer defines the interface for consuming job messages from a queue
type JobConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
