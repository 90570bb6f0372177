package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

func soloJourney(channel string, revenue float64) domain.ConversionJourney {
	return domain.ConversionJourney{
		Revenue:  revenue,
		Channels: []string{channel},
	}
}

func pairJourney(revenue float64, channels ...string) domain.ConversionJourney {
	return domain.ConversionJourney{
		Revenue:      revenue,
		Channels:     channels,
		IsMultiTouch: true,
	}
}

func TestAnalyzeSynergies_SalesMode(t *testing.T) {
	journeys := []domain.ConversionJourney{
		soloJourney("google", 2000),
		soloJourney("facebook", 1500),
	}
	for i := 0; i < 10; i++ {
		journeys = append(journeys, pairJourney(5000, "google", "facebook"))
	}

	synergies := AnalyzeSynergies(journeys, ModeSales)

	assert.Len(t, synergies, 1)
	s := synergies[0]
	assert.Equal(t, "facebook", s.ChannelA)
	assert.Equal(t, "google", s.ChannelB)
	assert.Equal(t, 10, s.Frequency)
	assert.InDelta(t, 5000.0, s.AvgPairRevenue, 1e-9)
	assert.InDelta(t, 2.5, s.SynergyScore, 1e-9)
	// 20 + 25*log2(10) saturates at 95.
	assert.InDelta(t, 95.0, s.Confidence, 1e-9)
}

func TestAnalyzeSynergies_LeadMode(t *testing.T) {
	journeys := []domain.ConversionJourney{
		soloJourney("google", 0),
		soloJourney("google", 0),
		soloJourney("email", 0),
	}
	for i := 0; i < 6; i++ {
		journeys = append(journeys, pairJourney(0, "google", "email"))
	}

	synergies := AnalyzeSynergies(journeys, ModeLead)

	assert.Len(t, synergies, 1)
	// 6 pair journeys against the better solo count of 2.
	assert.InDelta(t, 3.0, synergies[0].SynergyScore, 1e-9)
}

func TestAnalyzeSynergies_SkipsPairsWithoutBaseline(t *testing.T) {
	journeys := []domain.ConversionJourney{
		pairJourney(4000, "tiktok", "pinterest"),
	}

	assert.Empty(t, AnalyzeSynergies(journeys, ModeSales))
	assert.Empty(t, AnalyzeSynergies(journeys, ModeLead))
}

func TestAnalyzeSynergies_DefaultsToSalesMode(t *testing.T) {
	journeys := []domain.ConversionJourney{
		soloJourney("google", 1000),
		pairJourney(3000, "google", "email"),
	}

	synergies := AnalyzeSynergies(journeys, "")

	assert.Len(t, synergies, 1)
	assert.InDelta(t, 3.0, synergies[0].SynergyScore, 1e-9)
}

func TestAnalyzeSynergies_ThreeChannelJourneyYieldsAllPairs(t *testing.T) {
	journeys := []domain.ConversionJourney{
		soloJourney("a", 100),
		soloJourney("b", 100),
		soloJourney("c", 100),
		pairJourney(900, "a", "b", "c"),
	}

	synergies := AnalyzeSynergies(journeys, ModeSales)

	assert.Len(t, synergies, 3)
	pairs := make(map[[2]string]bool)
	for _, s := range synergies {
		pairs[[2]string{s.ChannelA, s.ChannelB}] = true
	}
	assert.True(t, pairs[[2]string{"a", "b"}])
	assert.True(t, pairs[[2]string{"a", "c"}])
	assert.True(t, pairs[[2]string{"b", "c"}])
}

func TestAnalyzeSynergies_SortedByScore(t *testing.T) {
	journeys := []domain.ConversionJourney{
		soloJourney("a", 1000),
		soloJourney("b", 1000),
		soloJourney("c", 1000),
		pairJourney(2000, "a", "b"),
		pairJourney(5000, "a", "c"),
	}

	synergies := AnalyzeSynergies(journeys, ModeSales)

	assert.Len(t, synergies, 2)
	assert.Equal(t, "c", synergies[0].ChannelB)
	assert.Greater(t, synergies[0].SynergyScore, synergies[1].SynergyScore)
}

func TestSynergyConfidence(t *testing.T) {
	assert.Equal(t, 0.0, synergyConfidence(0))
	assert.InDelta(t, 20.0, synergyConfidence(1), 1e-9)
	assert.InDelta(t, 45.0, synergyConfidence(2), 1e-9)
	assert.InDelta(t, 70.0, synergyConfidence(4), 1e-9)
	assert.InDelta(t, 95.0, synergyConfidence(8), 1e-9)
	assert.InDelta(t, 95.0, synergyConfidence(1000), 1e-9)
}

func TestUniquePairs(t *testing.T) {
	pairs := uniquePairs([]string{"google", "email", "google"})
	assert.Equal(t, [][2]string{{"email", "google"}}, pairs)

	assert.Empty(t, uniquePairs([]string{"google"}))
}
