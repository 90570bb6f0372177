package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/queue"
)

// JobParser parses a raw message body into a batch job
type JobParser interface {
	Parse(body []byte) (*domain.BatchJob, error)
}

// JSONJobParser implements JobParser for JSON-encoded job payloads
type JSONJobParser struct{}

// NewJSONJobParser creates a new JSON job parser
func NewJSONJobParser() *JSONJobParser {
	return &JSONJobParser{}
}

// Parse decodes and validates a job payload.
func (p *JSONJobParser) Parse(body []byte) (*domain.BatchJob, error) {
	var job domain.BatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job body: %w", err)
	}

	if strings.TrimSpace(job.JobID) == "" {
		return nil, fmt.Errorf("job is missing job_id")
	}

	switch job.Type {
	case domain.JobTypeAttributionBatch:
		if job.From.IsZero() || job.To.IsZero() {
			return nil, fmt.Errorf("attribution job %s is missing its time range", job.JobID)
		}
	case domain.JobTypePlatformSync:
		if job.Platform == "" {
			return nil, fmt.Errorf("sync job %s is missing platform", job.JobID)
		}
	default:
		return nil, fmt.Errorf("job %s has unknown type %q", job.JobID, job.Type)
	}

	return &job, nil
}

// ParserStage turns raw SQS messages into acknowledged job envelopes.
// Malformed payloads are deleted immediately; redelivering them can never
// succeed.
type ParserStage struct {
	consumer queue.JobConsumer
	parser   JobParser
	log      *zap.Logger
}

// NewParserStage creates a new parser stage
func NewParserStage(consumer queue.JobConsumer, parser JobParser, log *zap.Logger) *ParserStage {
	return &ParserStage{
		consumer: consumer,
		parser:   parser,
		log:      log,
	}
}

// Start begins parsing messages and outputs envelopes
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}

			envelope := p.parseMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
			}
		}
	}
}

func (p *ParserStage) parseMessage(ctx context.Context, msg types.Message) *Envelope {
	body := aws.ToString(msg.Body)
	job, err := p.parser.Parse([]byte(body))

	if err != nil {
		p.log.Warn("Failed to parse job message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		if err := p.deleteMessage(ctx, msg); err != nil {
			p.log.Error("Failed to delete malformed job message",
				zap.String("message_id", aws.ToString(msg.MessageId)),
				zap.Error(err))
		}
		return nil
	}

	ack := func(ctx context.Context) error {
		return p.deleteMessage(ctx, msg)
	}

	nack := func(ctx context.Context) error {
		// Left on the queue; SQS redelivers after the visibility timeout.
		return nil
	}

	return NewEnvelope(job, ack, nack)
}

func (p *ParserStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		p.log.Error("Failed to delete message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}
