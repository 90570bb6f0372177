package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

var scoringBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTimeProximity_ZeroDistance(t *testing.T) {
	assert.Equal(t, 1.0, TimeProximity(scoringBase, scoringBase, 24))
}

func TestTimeProximity_HalfWindow(t *testing.T) {
	got := TimeProximity(scoringBase, scoringBase.Add(12*time.Hour), 24)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestTimeProximity_Symmetric(t *testing.T) {
	before := TimeProximity(scoringBase.Add(-6*time.Hour), scoringBase, 24)
	after := TimeProximity(scoringBase.Add(6*time.Hour), scoringBase, 24)
	assert.InDelta(t, before, after, 1e-9)
	assert.InDelta(t, 0.75, after, 1e-9)
}

func TestTimeProximity_ClampsAtWindowEdge(t *testing.T) {
	atEdge := TimeProximity(scoringBase, scoringBase.Add(24*time.Hour), 24)
	assert.InDelta(t, 0.0, atEdge, 1e-9)

	beyond := TimeProximity(scoringBase, scoringBase.Add(48*time.Hour), 24)
	assert.Equal(t, 0.0, beyond)
}

func TestTimeProximity_InvalidWindow(t *testing.T) {
	assert.Equal(t, 0.0, TimeProximity(scoringBase, scoringBase, 0))
	assert.Equal(t, 0.0, TimeProximity(scoringBase, scoringBase, -5))
}

func TestUTMCompleteness_Empty(t *testing.T) {
	assert.Equal(t, 0.0, UTMCompleteness(domain.UTMParams{}))
}

func TestUTMCompleteness_CountsNonEmptyFields(t *testing.T) {
	utm := domain.UTMParams{
		Source: "google",
		Medium: "cpc",
	}
	assert.InDelta(t, 0.4, UTMCompleteness(utm), 1e-9)
}

func TestUTMCompleteness_IgnoresWhitespace(t *testing.T) {
	utm := domain.UTMParams{
		Source: "google",
		Medium: "   ",
	}
	assert.InDelta(t, 0.2, UTMCompleteness(utm), 1e-9)
}

func TestUTMCompleteness_Full(t *testing.T) {
	utm := domain.UTMParams{
		Source:   "facebook",
		Medium:   "paid_social",
		Campaign: "summer",
		Term:     "shoes",
		Content:  "carousel",
	}
	assert.Equal(t, 1.0, UTMCompleteness(utm))
}

func TestCompositeScore_PerfectSession(t *testing.T) {
	session := domain.PixelSession{
		LastEventAt: scoringBase,
		UTM: domain.UTMParams{
			Source:   "google",
			Medium:   "cpc",
			Campaign: "brand",
			Term:     "attribution",
			Content:  "ad1",
		},
		HasConversion: true,
	}

	assert.InDelta(t, 1.0, CompositeScore(session, scoringBase, 24), 1e-9)
}

func TestCompositeScore_AnchorsOnLastEvent(t *testing.T) {
	near := domain.PixelSession{
		FirstEventAt: scoringBase.Add(-20 * time.Hour),
		LastEventAt:  scoringBase.Add(-1 * time.Hour),
	}
	far := domain.PixelSession{
		FirstEventAt: scoringBase.Add(-20 * time.Hour),
		LastEventAt:  scoringBase.Add(-18 * time.Hour),
	}

	assert.Greater(t,
		CompositeScore(near, scoringBase, 24),
		CompositeScore(far, scoringBase, 24))
}

func TestCompositeScore_ConversionBreaksTie(t *testing.T) {
	plain := domain.PixelSession{LastEventAt: scoringBase}
	converted := domain.PixelSession{LastEventAt: scoringBase, HasConversion: true}

	assert.InDelta(t, 0.2,
		CompositeScore(converted, scoringBase, 24)-CompositeScore(plain, scoringBase, 24),
		1e-9)
}
