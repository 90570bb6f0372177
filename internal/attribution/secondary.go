package attribution

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// SecondarySignal is the corroborating evidence the secondary analytics
// feed holds for a transaction's day.
type SecondarySignal struct {
	// Matched reports whether the feed had any channel activity at all.
	Matched bool
	// HasTraffic reports whether the attributed channel itself appears in
	// the observed set, or, when no channel was attributed, whether any
	// channel was observed.
	HasTraffic bool
	// Channel is the attributed channel when it was observed, otherwise
	// the most frequent observed channel so conflicts can name both sides.
	Channel         string
	ConversionCount int
	TopChannels     []string
}

// SecondaryValidator checks the secondary analytics feed for corroborating
// channel traffic. Feed failures never fail the caller: they degrade to an
// empty signal.
type SecondaryValidator struct {
	feed repository.SecondaryStatsFeed
	log  *zap.Logger
}

// NewSecondaryValidator creates a new secondary source validator
func NewSecondaryValidator(feed repository.SecondaryStatsFeed, log *zap.Logger) *SecondaryValidator {
	return &SecondaryValidator{
		feed: feed,
		log:  log,
	}
}

// Validate aggregates same-day feed records for the user and reports
// whether the attributed channel is corroborated.
func (v *SecondaryValidator) Validate(ctx context.Context, userID, channel string, day time.Time) SecondarySignal {
	stats, err := v.feed.ListDailyChannelStats(ctx, userID, day)
	if err != nil {
		v.log.Warn("Secondary feed unavailable, continuing without signal",
			zap.String("user_id", userID),
			zap.Error(err))
		return SecondarySignal{}
	}
	if len(stats) == 0 {
		return SecondarySignal{}
	}

	sessionsByChannel := make(map[string]uint64)
	conversions := 0
	for _, s := range stats {
		normalized := domain.NormalizeChannel(s.Channel)
		if normalized == "" {
			continue
		}
		sessionsByChannel[normalized] += s.Sessions
		conversions += int(s.Conversions)
	}
	if len(sessionsByChannel) == 0 {
		return SecondarySignal{}
	}

	observed := make([]string, 0, len(sessionsByChannel))
	for c := range sessionsByChannel {
		observed = append(observed, c)
	}
	sort.Slice(observed, func(i, j int) bool {
		if sessionsByChannel[observed[i]] != sessionsByChannel[observed[j]] {
			return sessionsByChannel[observed[i]] > sessionsByChannel[observed[j]]
		}
		return observed[i] < observed[j]
	})

	signal := SecondarySignal{
		Matched:         true,
		ConversionCount: conversions,
		TopChannels:     observed,
	}

	attributed := domain.NormalizeChannel(channel)
	_, attributedObserved := sessionsByChannel[attributed]
	switch {
	case attributed == "":
		signal.HasTraffic = true
		signal.Channel = observed[0]
	case attributedObserved:
		signal.HasTraffic = true
		signal.Channel = attributed
	default:
		signal.Channel = observed[0]
	}

	return signal
}
