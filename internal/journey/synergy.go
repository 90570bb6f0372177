package journey

import (
	"math"
	"sort"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Mode selects the synergy formula: sales businesses compare revenue,
// lead-generation businesses compare journey frequency.
type Mode string

const (
	ModeSales Mode = "sales"
	ModeLead  Mode = "lead"
)

const maxSynergyConfidence = 95.0

// AnalyzeSynergies scores every unordered channel pair that co-occurs in a
// multi-touch journey against the better channel's solo baseline. A score
// of 1 or more means the pair beats either channel alone. Pairs with no
// solo baseline for either channel are skipped. Results are sorted by
// synergy score descending.
func AnalyzeSynergies(journeys []domain.ConversionJourney, mode Mode) []domain.ChannelSynergy {
	if mode == "" {
		mode = ModeSales
	}

	type soloStats struct {
		revenue float64
		count   int
	}
	solo := make(map[string]soloStats)
	for _, j := range journeys {
		if j.IsMultiTouch || len(j.Channels) == 0 {
			continue
		}
		s := solo[j.Channels[0]]
		s.revenue += j.Revenue
		s.count++
		solo[j.Channels[0]] = s
	}

	soloAvg := func(channel string) float64 {
		s := solo[channel]
		if s.count == 0 {
			return 0
		}
		return s.revenue / float64(s.count)
	}

	type pairKey struct{ a, b string }
	type pairStats struct {
		revenue   float64
		frequency int
	}
	pairs := make(map[pairKey]pairStats)

	for _, j := range journeys {
		if !j.IsMultiTouch {
			continue
		}
		for _, pair := range uniquePairs(j.Channels) {
			key := pairKey{a: pair[0], b: pair[1]}
			p := pairs[key]
			p.revenue += j.Revenue
			p.frequency++
			pairs[key] = p
		}
	}

	synergies := make([]domain.ChannelSynergy, 0, len(pairs))
	for key, p := range pairs {
		avgPair := p.revenue / float64(p.frequency)
		soloA := soloAvg(key.a)
		soloB := soloAvg(key.b)

		var score float64
		switch mode {
		case ModeLead:
			baseline := maxInt(solo[key.a].count, solo[key.b].count)
			if baseline == 0 {
				continue
			}
			score = float64(p.frequency) / float64(baseline)
		default:
			baseline := math.Max(soloA, soloB)
			if baseline <= 0 {
				continue
			}
			score = avgPair / baseline
		}

		synergies = append(synergies, domain.ChannelSynergy{
			ChannelA:       key.a,
			ChannelB:       key.b,
			Frequency:      p.frequency,
			AvgPairRevenue: avgPair,
			SoloAvgA:       soloA,
			SoloAvgB:       soloB,
			SynergyScore:   score,
			Confidence:     synergyConfidence(p.frequency),
		})
	}

	sort.SliceStable(synergies, func(i, j int) bool {
		if synergies[i].SynergyScore != synergies[j].SynergyScore {
			return synergies[i].SynergyScore > synergies[j].SynergyScore
		}
		return synergies[i].Frequency > synergies[j].Frequency
	})

	return synergies
}

// synergyConfidence grows logarithmically with observation count and
// saturates at 95: one observation is worth 20, each doubling adds 25.
func synergyConfidence(frequency int) float64 {
	if frequency < 1 {
		return 0
	}
	return math.Min(maxSynergyConfidence, 20+25*math.Log2(float64(frequency)))
}

// uniquePairs returns every unordered pair of distinct channels in the
// journey, keyed with the lexicographically smaller channel first.
func uniquePairs(channels []string) [][2]string {
	seen := make(map[string]bool)
	distinct := make([]string, 0, len(channels))
	for _, c := range channels {
		if !seen[c] {
			seen[c] = true
			distinct = append(distinct, c)
		}
	}
	sort.Strings(distinct)

	var pairs [][2]string
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			pairs = append(pairs, [2]string{distinct[i], distinct[j]})
		}
	}
	return pairs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
