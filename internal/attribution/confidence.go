package attribution

import (
	"math"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Confidence weights. The pixel component can contribute up to 70 points,
// the secondary component up to 30.
const (
	pixelBasePoints       = 30.0
	pixelProximityPoints  = 20.0
	pixelConversionPoints = 10.0
	pixelUTMPoints        = 10.0

	secondaryBasePoints    = 15.0
	secondaryChannelPoints = 15.0
	secondaryTrafficPoints = 5.0

	conflictCap = 50.0
)

// ConfidenceScore combines pixel-match and secondary-source evidence into a
// 0-100 score, a high/medium/low level and an attribution method. A channel
// conflict caps the score at 50, which forces the level to low.
func ConfidenceScore(match domain.AttributionMatch) domain.ConfidenceResult {
	total := 0.0

	if match.PixelMatched {
		total += pixelBasePoints
		total += pixelProximityPoints * match.TimeProximity
		if match.HasConversion {
			total += pixelConversionPoints
		}
		total += pixelUTMPoints * match.UTMCompleteness
	}

	if match.SecondaryMatched {
		total += secondaryBasePoints
		if channelsAgree(match.PixelChannel, match.SecondaryChannel) {
			total += secondaryChannelPoints
		} else if match.HasTraffic {
			total += secondaryTrafficPoints
		}
	}

	if match.ConflictReason != "" && total > conflictCap {
		total = conflictCap
	}

	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level, method := classify(score, match.SecondaryMatched)

	return domain.ConfidenceResult{
		Score:  score,
		Level:  level,
		Method: method,
	}
}

// classify buckets a score. The boundaries are order-sensitive: 85 and
// above is high/dual_verified, [70,85) is medium, [40,70) is low with a
// single source, below 40 is low and uncertain.
func classify(score int, secondaryMatched bool) (level, method string) {
	switch {
	case score >= 85:
		return domain.ConfidenceHigh, domain.MethodDualVerified
	case score >= 70:
		if secondaryMatched {
			return domain.ConfidenceMedium, domain.MethodDualVerified
		}
		return domain.ConfidenceMedium, domain.MethodSingleSource
	case score >= 40:
		return domain.ConfidenceLow, domain.MethodSingleSource
	default:
		return domain.ConfidenceLow, domain.MethodUncertain
	}
}

func channelsAgree(pixelChannel, secondaryChannel string) bool {
	a := domain.NormalizeChannel(pixelChannel)
	b := domain.NormalizeChannel(secondaryChannel)
	return a != "" && b != "" && a == b
}
