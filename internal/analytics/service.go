package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/journey"
)

// Provider is the read-side analytics surface the HTTP layer consumes.
type Provider interface {
	Performance(ctx context.Context, userID string, from, to time.Time) ([]domain.ChannelPerformance, error)
	Synergies(ctx context.Context, userID string, from, to time.Time, mode journey.Mode) ([]domain.ChannelSynergy, error)
	Patterns(ctx context.Context, userID string, from, to time.Time) ([]domain.JourneyPattern, error)
	Roles(ctx context.Context, userID string, from, to time.Time) ([]domain.ChannelRole, error)
	Recommendations(ctx context.Context, userID string, from, to time.Time) ([]domain.Recommendation, error)
}

// Service computes journey analytics on demand and caches each result per
// (user, range, kind). Everything here is read-only and recomputed after
// the TTL; the stores remain the source of truth.
type Service struct {
	reconstructor *journey.Reconstructor
	performance   *journey.PerformanceCalculator
	cache         Cache
	ttl           time.Duration
	log           *zap.Logger
}

// NewService creates a new analytics service
func NewService(
	reconstructor *journey.Reconstructor,
	performance *journey.PerformanceCalculator,
	cache Cache,
	ttl time.Duration,
	log *zap.Logger,
) *Service {
	return &Service{
		reconstructor: reconstructor,
		performance:   performance,
		cache:         cache,
		ttl:           ttl,
		log:           log,
	}
}

// Performance returns per-channel revenue, spend, ROI and rating.
func (s *Service) Performance(ctx context.Context, userID string, from, to time.Time) ([]domain.ChannelPerformance, error) {
	key := cacheKey("performance", userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.ChannelPerformance), nil
	}

	performance, err := s.performance.Compute(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, performance, s.ttl)
	return performance, nil
}

// Synergies returns pairwise channel synergy scores for the given business mode.
func (s *Service) Synergies(ctx context.Context, userID string, from, to time.Time, mode journey.Mode) ([]domain.ChannelSynergy, error) {
	if mode == "" {
		mode = journey.ModeSales
	}

	key := cacheKey("synergies:"+string(mode), userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.ChannelSynergy), nil
	}

	journeys, err := s.journeys(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	synergies := journey.AnalyzeSynergies(journeys, mode)
	s.cache.Set(key, synergies, s.ttl)
	return synergies, nil
}

// Patterns returns dominant journey shapes sorted by frequency.
func (s *Service) Patterns(ctx context.Context, userID string, from, to time.Time) ([]domain.JourneyPattern, error) {
	key := cacheKey("patterns", userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.JourneyPattern), nil
	}

	journeys, err := s.journeys(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	patterns := journey.AggregatePatterns(journeys)
	s.cache.Set(key, patterns, s.ttl)
	return patterns, nil
}

// Roles returns each channel's dominant funnel role.
func (s *Service) Roles(ctx context.Context, userID string, from, to time.Time) ([]domain.ChannelRole, error) {
	key := cacheKey("roles", userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.ChannelRole), nil
	}

	journeys, err := s.journeys(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	roles := journey.ClassifyRoles(journeys)
	s.cache.Set(key, roles, s.ttl)
	return roles, nil
}

// Recommendations runs the rule engine over the full analytics set.
func (s *Service) Recommendations(ctx context.Context, userID string, from, to time.Time) ([]domain.Recommendation, error) {
	key := cacheKey("recommendations", userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.Recommendation), nil
	}

	performance, err := s.Performance(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	journeys, err := s.journeys(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	synergies := journey.AnalyzeSynergies(journeys, journey.ModeSales)
	roles := journey.ClassifyRoles(journeys)
	patterns := journey.AggregatePatterns(journeys)

	recommendations := journey.GenerateRecommendations(performance, synergies, roles, patterns)
	s.cache.Set(key, recommendations, s.ttl)

	s.log.Info("Recommendations generated",
		zap.String("user_id", userID),
		zap.Int("count", len(recommendations)))

	return recommendations, nil
}

// journeys reconstructs (or re-reads from cache) the window's journeys,
// shared by every journey-derived computation.
func (s *Service) journeys(ctx context.Context, userID string, from, to time.Time) ([]domain.ConversionJourney, error) {
	key := cacheKey("journeys", userID, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.ConversionJourney), nil
	}

	journeys, err := s.reconstructor.BuildJourneys(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, journeys, s.ttl)
	return journeys, nil
}

func cacheKey(kind, userID string, from, to time.Time) string {
	return fmt.Sprintf("%s|%s|%d|%d", kind, userID, from.Unix(), to.Unix())
}
