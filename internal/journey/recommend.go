package journey

import (
	"fmt"
	"math"
	"sort"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Rule thresholds: a synergy pair is worth scaling when the pair at least
// doubles the better solo channel and has been seen often enough to trust.
const (
	scaleSynergyScoreMin      = 2.0
	scaleSynergyConfidenceMin = 50.0
)

// GenerateRecommendations runs the rule engine over the computed analytics.
// Output is sorted by priority (high, medium, low), ties broken by
// estimated impact descending.
func GenerateRecommendations(
	performance []domain.ChannelPerformance,
	synergies []domain.ChannelSynergy,
	roles []domain.ChannelRole,
	patterns []domain.JourneyPattern,
) []domain.Recommendation {
	var recommendations []domain.Recommendation

	perfByChannel := make(map[string]domain.ChannelPerformance, len(performance))
	for _, p := range performance {
		perfByChannel[p.Channel] = p
	}
	roleByChannel := make(map[string]domain.ChannelRole, len(roles))
	for _, r := range roles {
		roleByChannel[r.Channel] = r
	}

	// Scale: a proven synergy pair outperforming either channel alone.
	for _, s := range synergies {
		if s.SynergyScore < scaleSynergyScoreMin || s.Confidence < scaleSynergyConfidenceMin {
			continue
		}

		bestSolo := math.Max(s.SoloAvgA, s.SoloAvgB)
		impact := (s.AvgPairRevenue - bestSolo) * float64(s.Frequency)

		recommendations = append(recommendations, domain.Recommendation{
			Type:     domain.RecommendationScaleSynergy,
			Priority: domain.PriorityHigh,
			Channels: []string{s.ChannelA, s.ChannelB},
			Reason: fmt.Sprintf(
				"%s and %s convert %.1fx better together than either does alone across %d journeys",
				s.ChannelA, s.ChannelB, s.SynergyScore, s.Frequency),
			EstimatedImpact: impact,
		})
	}

	for _, p := range performance {
		if p.Rating != domain.RatingPoor && p.Rating != domain.RatingFailing {
			continue
		}

		role, hasRole := roleByChannel[p.Channel]
		isolated := hasRole && role.Role == domain.RoleIsolated

		if isolated {
			// Stop: spends money, converts alone, and still underperforms.
			recommendations = append(recommendations, domain.Recommendation{
				Type:     domain.RecommendationStopChannel,
				Priority: domain.PriorityHigh,
				Channels: []string{p.Channel},
				Reason: fmt.Sprintf(
					"%s is isolated (no assists) and rated %s; pausing it frees its budget",
					p.Channel, p.Rating),
				EstimatedImpact: p.Spend,
			})
			continue
		}

		// Optimize: underperforming but participating in journeys, so it
		// may be assisting conversions credited elsewhere.
		recommendations = append(recommendations, domain.Recommendation{
			Type:     domain.RecommendationOptimizeSpend,
			Priority: domain.PriorityMedium,
			Channels: []string{p.Channel},
			Reason: fmt.Sprintf(
				"%s is rated %s but assists other channels; retarget its spend before cutting it",
				p.Channel, p.Rating),
			EstimatedImpact: math.Max(0, p.Spend-p.Revenue),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		pi := priorityRank(recommendations[i].Priority)
		pj := priorityRank(recommendations[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return recommendations[i].EstimatedImpact > recommendations[j].EstimatedImpact
	})

	return recommendations
}

func priorityRank(priority string) int {
	switch priority {
	case domain.PriorityHigh:
		return 0
	case domain.PriorityMedium:
		return 1
	default:
		return 2
	}
}
