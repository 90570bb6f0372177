package worker

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockJobConsumer is a mock implementation of queue.JobConsumer
type MockJobConsumer struct {
	mock.Mock
}

func (m *MockJobConsumer) ReceiveMessages(ctx context.Context, input *awssqs.ReceiveMessageInput) (*awssqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockJobConsumer) DeleteMessage(ctx context.Context, input *awssqs.DeleteMessageInput) (*awssqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockJobConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
}

func TestJSONJobParser_ValidAttributionJob(t *testing.T) {
	parser := NewJSONJobParser()

	body := []byte(`{
		"job_id": "job-1",
		"type": "attribution_batch",
		"user_id": "user_1",
		"from": "2025-06-01T00:00:00Z",
		"to": "2025-06-30T00:00:00Z",
		"batch_size": 50
	}`)

	job, err := parser.Parse(body)

	assert.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, domain.JobTypeAttributionBatch, job.Type)
	assert.Equal(t, "user_1", job.UserID)
	assert.Equal(t, 50, job.BatchSize)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), job.From)
}

func TestJSONJobParser_ValidSyncJob(t *testing.T) {
	parser := NewJSONJobParser()

	body := []byte(`{
		"job_id": "job-2",
		"type": "platform_sync",
		"user_id": "user_1",
		"platform": "meta",
		"access_token": "token-1",
		"from": "2025-06-01T00:00:00Z",
		"to": "2025-06-30T00:00:00Z"
	}`)

	job, err := parser.Parse(body)

	assert.NoError(t, err)
	assert.Equal(t, domain.JobTypePlatformSync, job.Type)
	assert.Equal(t, "meta", job.Platform)
}

func TestJSONJobParser_InvalidJSON(t *testing.T) {
	parser := NewJSONJobParser()

	_, err := parser.Parse([]byte(`{not json`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestJSONJobParser_MissingJobID(t *testing.T) {
	parser := NewJSONJobParser()

	_, err := parser.Parse([]byte(`{"type": "attribution_batch"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing job_id")
}

func TestJSONJobParser_AttributionJobWithoutRange(t *testing.T) {
	parser := NewJSONJobParser()

	_, err := parser.Parse([]byte(`{"job_id": "job-1", "type": "attribution_batch"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing its time range")
}

func TestJSONJobParser_SyncJobWithoutPlatform(t *testing.T) {
	parser := NewJSONJobParser()

	_, err := parser.Parse([]byte(`{"job_id": "job-1", "type": "platform_sync"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing platform")
}

func TestJSONJobParser_UnknownType(t *testing.T) {
	parser := NewJSONJobParser()

	_, err := parser.Parse([]byte(`{"job_id": "job-1", "type": "mystery"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestParserStage_EmitsEnvelope(t *testing.T) {
	mockConsumer := new(MockJobConsumer)
	log := zap.NewNop()

	stage := NewParserStage(mockConsumer, NewJSONJobParser(), log)

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{"job_id": "job-1", "type": "attribution_batch", "from": "2025-06-01T00:00:00Z", "to": "2025-06-30T00:00:00Z"}`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	close(in)

	envelope := <-out

	assert.NotNil(t, envelope)
	assert.Equal(t, "job-1", envelope.Job.JobID)
	mockConsumer.AssertNotCalled(t, "DeleteMessage")
}

func TestParserStage_DeletesMalformedMessage(t *testing.T) {
	mockConsumer := new(MockJobConsumer)
	log := zap.NewNop()

	stage := NewParserStage(mockConsumer, NewJSONJobParser(), log)

	mockConsumer.On("QueueURL").Return("https://sqs.ap-southeast-1.amazonaws.com/123/jobs")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&awssqs.DeleteMessageOutput{}, nil)

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{broken`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	close(in)

	// Out closes without emitting an envelope once the input drains.
	_, ok := <-out
	assert.False(t, ok)

	mockConsumer.AssertExpectations(t)
}

func TestEnvelope_AckDelegates(t *testing.T) {
	acked := false
	envelope := NewEnvelope(&domain.BatchJob{JobID: "job-1"},
		func(ctx context.Context) error { acked = true; return nil },
		nil)

	assert.NoError(t, envelope.Ack(context.Background()))
	assert.True(t, acked)
	assert.NoError(t, envelope.Nack(context.Background()))
}
