package journey

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// touchpointLookback is how far before a conversion sessions still count as
// part of its journey.
const touchpointLookback = 7 * 24 * time.Hour

// Reconstructor rebuilds multi-touch conversion paths from verified
// conversions and pixel history.
type Reconstructor struct {
	conversions repository.ConversionRepository
	users       repository.UserDirectory
	events      repository.PixelEventStore
	log         *zap.Logger
}

// NewReconstructor creates a new journey reconstructor
func NewReconstructor(
	conversions repository.ConversionRepository,
	users repository.UserDirectory,
	events repository.PixelEventStore,
	log *zap.Logger,
) *Reconstructor {
	return &Reconstructor{
		conversions: conversions,
		users:       users,
		events:      events,
		log:         log,
	}
}

// BuildJourneys reconstructs one journey per verified conversion in
// [from, to], in ascending conversion order. A session contributes one
// touchpoint when its first event falls inside the 7-day lookback window;
// consecutive duplicate channels collapse into one step. A conversion with
// no touchpoints falls back to its already-attributed channel.
func (r *Reconstructor) BuildJourneys(ctx context.Context, userID string, from, to time.Time) ([]domain.ConversionJourney, error) {
	conversions, err := r.conversions.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions for journeys: %w", err)
	}

	sort.SliceStable(conversions, func(i, j int) bool {
		return conversions[i].TransactionAt.Before(conversions[j].TransactionAt)
	})

	// One directory lookup per distinct email within this analysis run.
	pixelIDs := make(map[string]string)

	journeys := make([]domain.ConversionJourney, 0, len(conversions))
	for _, conv := range conversions {
		pixelID, err := r.resolvePixelID(ctx, conv.Email, pixelIDs)
		if err != nil {
			return nil, err
		}

		touchpoints, err := r.collectTouchpoints(ctx, pixelID, conv.TransactionAt)
		if err != nil {
			return nil, err
		}

		channels := collapseConsecutive(touchpointChannels(touchpoints))
		if len(channels) == 0 {
			channels = []string{conv.AttributedChannel}
		}

		journeys = append(journeys, domain.ConversionJourney{
			TransactionID: conv.TransactionID,
			Revenue:       conv.Amount,
			Channels:      channels,
			Touchpoints:   touchpoints,
			IsMultiTouch:  len(channels) > 1,
			ConvertedAt:   conv.TransactionAt,
		})
	}

	return journeys, nil
}

func (r *Reconstructor) resolvePixelID(ctx context.Context, email string, cache map[string]string) (string, error) {
	if pixelID, ok := cache[email]; ok {
		return pixelID, nil
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to resolve pixel for %s: %w", email, err)
	}

	pixelID := ""
	if user != nil {
		pixelID = user.PixelID
	}
	cache[email] = pixelID
	return pixelID, nil
}

// collectTouchpoints returns one touchpoint per session whose first event
// falls within the lookback window, ordered by that first event's time.
func (r *Reconstructor) collectTouchpoints(ctx context.Context, pixelID string, convertedAt time.Time) ([]domain.Touchpoint, error) {
	if pixelID == "" {
		return nil, nil
	}

	windowStart := convertedAt.Add(-touchpointLookback)
	events, err := r.events.ListEvents(ctx, pixelID, windowStart, convertedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to list pixel events for journey: %w", err)
	}

	sessions := attribution.GroupSessions(events)

	touchpoints := make([]domain.Touchpoint, 0, len(sessions))
	for _, s := range sessions {
		if s.FirstEventAt.Before(windowStart) || s.FirstEventAt.After(convertedAt) {
			continue
		}
		touchpoints = append(touchpoints, domain.Touchpoint{
			SessionID:  s.SessionID,
			Channel:    domain.ChannelFromUTM(s.UTM),
			Timestamp:  s.FirstEventAt,
			UTM:        s.UTM,
			EventCount: s.EventCount,
		})
	}

	sort.SliceStable(touchpoints, func(i, j int) bool {
		return touchpoints[i].Timestamp.Before(touchpoints[j].Timestamp)
	})

	return touchpoints, nil
}

func touchpointChannels(touchpoints []domain.Touchpoint) []string {
	channels := make([]string, 0, len(touchpoints))
	for _, tp := range touchpoints {
		channels = append(channels, tp.Channel)
	}
	return channels
}

// collapseConsecutive removes consecutive duplicate channels only. A
// channel that reappears after another channel still counts again.
func collapseConsecutive(channels []string) []string {
	if len(channels) == 0 {
		return nil
	}

	collapsed := []string{channels[0]}
	for _, c := range channels[1:] {
		if c != collapsed[len(collapsed)-1] {
			collapsed = append(collapsed, c)
		}
	}

	return collapsed
}
