package journey

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// ROI thresholds for the rating tiers, in percent.
const (
	roiExceptional  = 500.0
	roiExcellent    = 200.0
	roiSatisfactory = 100.0
)

// PerformanceCalculator aggregates revenue, conversions and spend per
// channel over an analysis window.
type PerformanceCalculator struct {
	conversions repository.ConversionRepository
	spend       repository.SpendFeed
	log         *zap.Logger
}

// NewPerformanceCalculator creates a new channel performance calculator
func NewPerformanceCalculator(conversions repository.ConversionRepository, spend repository.SpendFeed, log *zap.Logger) *PerformanceCalculator {
	return &PerformanceCalculator{
		conversions: conversions,
		spend:       spend,
		log:         log,
	}
}

// Compute sums settled revenue and conversions per attributed channel,
// joins ad spend, derives ROI and buckets each channel into a rating tier.
// Results are sorted by revenue descending.
func (c *PerformanceCalculator) Compute(ctx context.Context, userID string, from, to time.Time) ([]domain.ChannelPerformance, error) {
	conversions, err := c.conversions.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions for performance: %w", err)
	}

	spendRecords, err := c.spend.ListSpendRecords(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list spend for performance: %w", err)
	}

	type stats struct {
		revenue     float64
		conversions int
		spend       float64
	}
	byChannel := make(map[string]*stats)

	channelStats := func(channel string) *stats {
		normalized := domain.NormalizeChannel(channel)
		if normalized == "" {
			normalized = domain.DefaultChannel
		}
		s, ok := byChannel[normalized]
		if !ok {
			s = &stats{}
			byChannel[normalized] = s
		}
		return s
	}

	for _, conv := range conversions {
		s := channelStats(conv.AttributedChannel)
		s.revenue += conv.Amount
		s.conversions++
	}
	for _, rec := range spendRecords {
		channelStats(rec.Channel).spend += rec.Spend
	}

	performance := make([]domain.ChannelPerformance, 0, len(byChannel))
	for channel, s := range byChannel {
		roi := computeROI(s.revenue, s.spend)
		performance = append(performance, domain.ChannelPerformance{
			Channel:     channel,
			Revenue:     s.revenue,
			Conversions: s.conversions,
			Spend:       s.spend,
			ROI:         roi,
			Rating:      rateROI(roi),
		})
	}

	sort.SliceStable(performance, func(i, j int) bool {
		if performance[i].Revenue != performance[j].Revenue {
			return performance[i].Revenue > performance[j].Revenue
		}
		return performance[i].Channel < performance[j].Channel
	})

	return performance, nil
}

// computeROI returns percent ROI. Zero spend with revenue is infinitely
// good; zero spend with zero revenue is flat.
func computeROI(revenue, spend float64) float64 {
	if spend == 0 {
		if revenue > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (revenue - spend) / spend * 100
}

func rateROI(roi float64) string {
	switch {
	case roi >= roiExceptional:
		return domain.RatingExceptional
	case roi >= roiExcellent:
		return domain.RatingExcellent
	case roi >= roiSatisfactory:
		return domain.RatingSatisfactory
	case roi >= 0:
		return domain.RatingPoor
	default:
		return domain.RatingFailing
	}
}
