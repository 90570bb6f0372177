package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/journey"
)

// MockConversionRepository is a mock implementation of repository.ConversionRepository
type MockConversionRepository struct {
	mock.Mock
}

func (m *MockConversionRepository) InsertIfAbsent(ctx context.Context, conversion *domain.VerifiedConversion) (*domain.VerifiedConversion, error) {
	args := m.Called(ctx, conversion)
	if args.Get(0) == nil {
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

type serviceFixture struct {
	conversions *MockConversionRepository
	users       *MockUserDirectory
	events      *MockPixelEventStore
	spend       *MockSpendFeed
	service     *Service
}

func newServiceFixture(ttl time.Duration) *serviceFixture {
	f := &serviceFixture{
		conversions: new(MockConversionRepository),
		users:       new(MockUserDirectory),
		events:      new(MockPixelEventStore),
		spend:       new(MockSpendFeed),
	}

	log := zap.NewNop()
	reconstructor := journey.NewReconstructor(f.conversions, f.users, f.events, log)
	performance := journey.NewPerformanceCalculator(f.conversions, f.spend, log)
	f.service = NewService(reconstructor, performance, NewMemoryCache(), ttl, log)

	return f
}

var (
	analyticsFrom = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	analyticsTo   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func (f *serviceFixture) stubConversions(conversions []domain.VerifiedConversion) {
	f.conversions.On("ListByUser", mock.Anything, "user_1", analyticsFrom, analyticsTo).
		Return(conversions, nil)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
}

func TestService_Performance(t *testing.T) {
	f := newServiceFixture(time.Minute)

	f.stubConversions([]domain.VerifiedConversion{
		{AttributedChannel: "google", Amount: 5000},
	})
	f.spend.On("ListSpendRecords", mock.Anything, "user_1", analyticsFrom, analyticsTo).
		Return([]domain.SpendRecord{{Channel: "google", Spend: 1000}}, nil)

	performance, err := f.service.Performance(context.Background(), "user_1", analyticsFrom, analyticsTo)

	assert.NoError(t, err)
	assert.Len(t, performance, 1)
	assert.Equal(t, "google", performance[0].Channel)
	assert.InDelta(t, 400.0, performance[0].ROI, 1e-9)
}

func TestService_CachesJourneysAcrossAnalytics(t *testing.T) {
	f := newServiceFixture(time.Minute)

	f.stubConversions([]domain.VerifiedConversion{
		{TransactionID: "txn_1", Email: "a@example.com", AttributedChannel: "google", Amount: 1000, TransactionAt: analyticsFrom.Add(time.Hour)},
	})

	_, err := f.service.Patterns(context.Background(), "user_1", analyticsFrom, analyticsTo)
	assert.NoError(t, err)
	_, err = f.service.Roles(context.Background(), "user_1", analyticsFrom, analyticsTo)
	assert.NoError(t, err)
	_, err = f.service.Synergies(context.Background(), "user_1", analyticsFrom, analyticsTo, journey.ModeSales)
	assert.NoError(t, err)

	// Journeys are reconstructed once and shared via the cache.
	f.conversions.AssertNumberOfCalls(t, "ListByUser", 1)
}

func TestService_CacheExpiryRecomputes(t *testing.T) {
	f := newServiceFixture(time.Millisecond)

	f.stubConversions([]domain.VerifiedConversion{})

	_, err := f.service.Patterns(context.Background(), "user_1", analyticsFrom, analyticsTo)
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = f.service.Patterns(context.Background(), "user_1", analyticsFrom, analyticsTo)
	assert.NoError(t, err)

	f.conversions.AssertNumberOfCalls(t, "ListByUser", 2)
}

func TestService_SynergyModesCacheSeparately(t *testing.T) {
	f := newServiceFixture(time.Minute)

	f.stubConversions([]domain.VerifiedConversion{})

	sales, err := f.service.Synergies(context.Background(), "user_1", analyticsFrom, analyticsTo, journey.ModeSales)
	assert.NoError(t, err)
	lead, err := f.service.Synergies(context.Background(), "user_1", analyticsFrom, analyticsTo, journey.ModeLead)
	assert.NoError(t, err)

	assert.Empty(t, sales)
	assert.Empty(t, lead)
}

func TestService_Recommendations(t *testing.T) {
	f := newServiceFixture(time.Minute)

	f.stubConversions([]domain.VerifiedConversion{
		{TransactionID: "txn_1", Email: "a@example.com", AttributedChannel: "sms", Amount: 200, TransactionAt: analyticsFrom.Add(time.Hour)},
	})
	f.spend.On("ListSpendRecords", mock.Anything, "user_1", analyticsFrom, analyticsTo).
		Return([]domain.SpendRecord{{Channel: "sms", Spend: 5000}}, nil)

	recs, err := f.service.Recommendations(context.Background(), "user_1", analyticsFrom, analyticsTo)

	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, domain.RecommendationStopChannel, recs[0].Type)
	assert.Equal(t, []string{"sms"}, recs[0].Channels)
}
