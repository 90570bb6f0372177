package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

func TestGenerateRecommendations_ScaleSynergy(t *testing.T) {
	synergies := []domain.ChannelSynergy{
		{
			ChannelA:       "facebook",
			ChannelB:       "google",
			Frequency:      10,
			AvgPairRevenue: 5000,
			SoloAvgA:       1500,
			SoloAvgB:       2000,
			SynergyScore:   2.5,
			Confidence:     95,
		},
	}

	recs := GenerateRecommendations(nil, synergies, nil, nil)

	assert.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.RecommendationScaleSynergy, rec.Type)
	assert.Equal(t, domain.PriorityHigh, rec.Priority)
	assert.Equal(t, []string{"facebook", "google"}, rec.Channels)
	// (5000 - 2000) * 10 journeys.
	assert.InDelta(t, 30000.0, rec.EstimatedImpact, 1e-9)
	assert.Contains(t, rec.Reason, "2.5x")
}

func TestGenerateRecommendations_WeakSynergyIgnored(t *testing.T) {
	synergies := []domain.ChannelSynergy{
		{SynergyScore: 1.9, Confidence: 95},
		{SynergyScore: 3.0, Confidence: 45},
	}

	assert.Empty(t, GenerateRecommendations(nil, synergies, nil, nil))
}

func TestGenerateRecommendations_StopIsolatedUnderperformer(t *testing.T) {
	performance := []domain.ChannelPerformance{
		{Channel: "sms", Revenue: 200, Spend: 5000, ROI: -96, Rating: domain.RatingFailing},
	}
	roles := []domain.ChannelRole{
		{Channel: "sms", Solo: 8, Total: 10, Role: domain.RoleIsolated},
	}

	recs := GenerateRecommendations(performance, nil, roles, nil)

	assert.Len(t, recs, 1)
	assert.Equal(t, domain.RecommendationStopChannel, recs[0].Type)
	assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
	assert.Equal(t, 5000.0, recs[0].EstimatedImpact)
}

func TestGenerateRecommendations_OptimizeAssistingUnderperformer(t *testing.T) {
	performance := []domain.ChannelPerformance{
		{Channel: "facebook", Revenue: 1000, Spend: 3000, ROI: -66.7, Rating: domain.RatingFailing},
	}
	roles := []domain.ChannelRole{
		{Channel: "facebook", Introducer: 5, Total: 6, Role: domain.RoleIntroducer},
	}

	recs := GenerateRecommendations(performance, nil, roles, nil)

	assert.Len(t, recs, 1)
	assert.Equal(t, domain.RecommendationOptimizeSpend, recs[0].Type)
	assert.Equal(t, domain.PriorityMedium, recs[0].Priority)
	assert.Equal(t, 2000.0, recs[0].EstimatedImpact)
}

func TestGenerateRecommendations_HealthyChannelsProduceNothing(t *testing.T) {
	performance := []domain.ChannelPerformance{
		{Channel: "google", Rating: domain.RatingExceptional},
		{Channel: "email", Rating: domain.RatingSatisfactory},
	}

	assert.Empty(t, GenerateRecommendations(performance, nil, nil, nil))
}

func TestGenerateRecommendations_SortedByPriorityThenImpact(t *testing.T) {
	performance := []domain.ChannelPerformance{
		{Channel: "facebook", Revenue: 1000, Spend: 3000, Rating: domain.RatingFailing},
		{Channel: "sms", Revenue: 200, Spend: 500, Rating: domain.RatingPoor},
	}
	roles := []domain.ChannelRole{
		{Channel: "facebook", Role: domain.RoleIntroducer},
		{Channel: "sms", Role: domain.RoleIsolated},
	}
	synergies := []domain.ChannelSynergy{
		{
			ChannelA: "email", ChannelB: "google",
			Frequency: 4, AvgPairRevenue: 4000, SoloAvgA: 1000, SoloAvgB: 1500,
			SynergyScore: 2.7, Confidence: 70,
		},
	}

	recs := GenerateRecommendations(performance, synergies, roles, nil)

	assert.Len(t, recs, 3)

	// High priority first: scale (impact 10000) before stop (impact 500).
	assert.Equal(t, domain.RecommendationScaleSynergy, recs[0].Type)
	assert.Equal(t, domain.RecommendationStopChannel, recs[1].Type)
	assert.Equal(t, domain.RecommendationOptimizeSpend, recs[2].Type)
}
