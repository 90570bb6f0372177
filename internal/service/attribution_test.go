package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockJobPublisher is a mock implementation of queue.JobPublisher
type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) PublishJob(ctx context.Context, job *domain.BatchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockUserDirectory is a mock implementation of repository.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

// MockPixelEventStore is a mock implementation of repository.PixelEventStore
type MockPixelEventStore struct {
	mock.Mock
}

func (m *MockPixelEventStore) ListEvents(ctx context.Context, pixelID string, from, to time.Time) ([]domain.PixelEvent, error) {
	args := m.Called(ctx, pixelID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PixelEvent), args.Error(1)
}

func (m *MockPixelEventStore) ListEventsByUTM(ctx context.Context, pixelID string, from, to time.Time, filter domain.UTMFilter) ([]domain.PixelEvent, error) {
	args := m.Called(ctx, pixelID, from, to, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PixelEvent), args.Error(1)
}

// MockSecondaryStatsFeed is a mock implementation of repository.SecondaryStatsFeed
type MockSecondaryStatsFeed struct {
	mock.Mock
}

func (m *MockSecondaryStatsFeed) ListDailyChannelStats(ctx context.Context, userID string, day time.Time) ([]domain.DailyChannelStat, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyChannelStat), args.Error(1)
}

// MockTransactionSource is a mock implementation of repository.TransactionSource
type MockTransactionSource struct {
	mock.Mock
}

func (m *MockTransactionSource) ListTransactions(ctx context.Context, userID string, kinds []string, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, kinds, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockSpendFeed is a mock implementation of repository.SpendFeed
type MockSpendFeed struct {
	mock.Mock
}

func (m *MockSpendFeed) ListSpendRecords(ctx context.Context, userID string, from, to time.Time) ([]domain.SpendRecord, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SpendRecord), args.Error(1)
}

// MockConversionRepository is a mock implementation of repository.ConversionRepository
type MockConversionRepository struct {
	mock.Mock
}

func (m *MockConversionRepository) InsertIfAbsent(ctx context.Context, conversion *domain.VerifiedConversion) (*domain.VerifiedConversion, error) {
	args := m.Called(ctx, conversion)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return conversion, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifiedConversion), args.Error(1)
}

func (m *MockConversionRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]domain.VerifiedConversion, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VerifiedConversion), args.Error(1)
}

func (m *MockConversionRepository) ExistingTransactionIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type serviceFixture struct {
	users       *MockUserDirectory
	conversions *MockConversionRepository
	jobs        *MockJobPublisher
	service     *AttributionService
}

func newServiceFixture() *serviceFixture {
	log := zap.NewNop()

	f := &serviceFixture{
		users:       new(MockUserDirectory),
		conversions: new(MockConversionRepository),
		jobs:        new(MockJobPublisher),
	}

	txns := new(MockTransactionSource)
	finder := attribution.NewSessionFinder(f.users, new(MockPixelEventStore), log)
	secondary := attribution.NewSecondaryValidator(new(MockSecondaryStatsFeed), log)
	overAttr := attribution.NewOverAttributionDetector(txns, new(MockSpendFeed), log)
	engine := attribution.NewEngine(finder, secondary, overAttr, f.conversions, log)
	batch := attribution.NewBatchProcessor(engine, txns, f.conversions, attribution.BatchConfig{}, log)

	f.service = NewAttributionService(engine, batch, f.jobs, log)
	return f
}

var (
	serviceFrom = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	serviceTo   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func TestAttributionService_Attribute_Validation(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.Attribute(context.Background(), "user_1", domain.Transaction{
		Email:     "a@b.c",
		Timestamp: serviceFrom,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction_id is required")

	_, err = f.service.Attribute(context.Background(), "user_1", domain.Transaction{
		ID:        "txn_1",
		Timestamp: serviceFrom,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")

	_, err = f.service.Attribute(context.Background(), "user_1", domain.Transaction{
		ID:    "txn_1",
		Email: "a@b.c",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp is required")

	f.conversions.AssertNotCalled(t, "InsertIfAbsent")
}

func TestAttributionService_Attribute_DelegatesToEngine(t *testing.T) {
	f := newServiceFixture()

	f.users.On("FindByEmail", mock.Anything, "buyer@example.com").Return(nil, nil)
	f.conversions.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(nil, nil)

	conversion, err := f.service.Attribute(context.Background(), "", domain.Transaction{
		ID:        "txn_1",
		Email:     "buyer@example.com",
		Amount:    100,
		Timestamp: serviceFrom,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.DefaultChannel, conversion.AttributedChannel)
}

func TestAttributionService_RunBatch_RangeValidation(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.RunBatch(context.Background(), "user_1", time.Time{}, serviceTo, attribution.BatchConfig{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "from and to are required")

	_, err = f.service.RunBatch(context.Background(), "user_1", serviceTo, serviceFrom, attribution.BatchConfig{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "from must not be after to")
}

func TestAttributionService_EnqueueBatch(t *testing.T) {
	f := newServiceFixture()

	var published *domain.BatchJob
	f.jobs.On("PublishJob", mock.Anything, mock.AnythingOfType("*domain.BatchJob")).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(*domain.BatchJob)
		}).
		Return(nil)

	jobID, err := f.service.EnqueueBatch(context.Background(), "user_1", serviceFrom, serviceTo, attribution.BatchConfig{BatchSize: 50})

	assert.NoError(t, err)
	assert.NotEmpty(t, jobID)
	assert.Equal(t, jobID, published.JobID)
	assert.Equal(t, domain.JobTypeAttributionBatch, published.Type)
	assert.Equal(t, "user_1", published.UserID)
	assert.Equal(t, 50, published.BatchSize)
}

func TestAttributionService_EnqueueBatch_PublishError(t *testing.T) {
	f := newServiceFixture()

	f.jobs.On("PublishJob", mock.Anything, mock.Anything).Return(errors.New("sqs unavailable"))

	jobID, err := f.service.EnqueueBatch(context.Background(), "user_1", serviceFrom, serviceTo, attribution.BatchConfig{})

	assert.Error(t, err)
	assert.Empty(t, jobID)
	assert.Contains(t, err.Error(), "failed to enqueue batch job")
}
