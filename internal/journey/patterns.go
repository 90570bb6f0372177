package journey

import (
	"sort"
	"strings"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// patternSeparator joins a channel sequence into an order-sensitive key.
const patternSeparator = " > "

// AggregatePatterns groups journeys by their exact ordered channel sequence
// and reports each pattern's frequency and revenue, most frequent first.
func AggregatePatterns(journeys []domain.ConversionJourney) []domain.JourneyPattern {
	byKey := make(map[string]*domain.JourneyPattern)

	for _, j := range journeys {
		if len(j.Channels) == 0 {
			continue
		}

		key := strings.Join(j.Channels, patternSeparator)
		p, ok := byKey[key]
		if !ok {
			path := make([]string, len(j.Channels))
			copy(path, j.Channels)
			p = &domain.JourneyPattern{Path: path, Key: key}
			byKey[key] = p
		}
		p.Frequency++
		p.TotalRevenue += j.Revenue
	}

	patterns := make([]domain.JourneyPattern, 0, len(byKey))
	for _, p := range byKey {
		p.AvgRevenue = p.TotalRevenue / float64(p.Frequency)
		patterns = append(patterns, *p)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		if patterns[i].TotalRevenue != patterns[j].TotalRevenue {
			return patterns[i].TotalRevenue > patterns[j].TotalRevenue
		}
		return patterns[i].Key < patterns[j].Key
	})

	return patterns
}
