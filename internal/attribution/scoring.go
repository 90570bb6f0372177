package attribution

import (
	"strings"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Composite ranking weights. The composite score only orders candidate
// sessions; it is never surfaced to callers.
const (
	weightProximity  = 0.5
	weightUTM        = 0.3
	weightConversion = 0.2
)

// DefaultWindowHours is the candidate search window around a transaction.
const DefaultWindowHours = 24.0

// TimeProximity linearly decays from 1.0 at zero distance to 0.0 at the
// window edge, clamped so it never goes negative.
func TimeProximity(a, b time.Time, windowHours float64) float64 {
	if windowHours <= 0 {
		return 0
	}

	distance := a.Sub(b).Seconds()
	if distance < 0 {
		distance = -distance
	}

	proximity := 1 - distance/(windowHours*3600)
	if proximity < 0 {
		return 0
	}
	return proximity
}

// UTMCompleteness is the fraction of the five UTM fields that are non-empty.
func UTMCompleteness(utm domain.UTMParams) float64 {
	fields := []string{utm.Source, utm.Medium, utm.Campaign, utm.Term, utm.Content}

	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}

	return float64(filled) / float64(len(fields))
}

// CompositeScore ranks a candidate session against a transaction time.
// Proximity is anchored on the session's last event.
func CompositeScore(session domain.PixelSession, txnAt time.Time, windowHours float64) float64 {
	score := weightProximity * TimeProximity(session.LastEventAt, txnAt, windowHours)
	score += weightUTM * UTMCompleteness(session.UTM)
	if session.HasConversion {
		score += weightConversion
	}
	return score
}
