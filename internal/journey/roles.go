package journey

import (
	"sort"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// isolationThreshold: a channel converting solo in more than 60% of its
// appearances is isolated no matter what its other positions look like.
const isolationThreshold = 0.6

// ClassifyRoles counts, per channel, how often it opens a journey
// (introducer), ends one (closer), sits in the middle (supporter) or
// converts alone (solo), and classifies the channel's dominant role.
// Results are sorted by total appearances descending.
func ClassifyRoles(journeys []domain.ConversionJourney) []domain.ChannelRole {
	byChannel := make(map[string]*domain.ChannelRole)

	role := func(channel string) *domain.ChannelRole {
		r, ok := byChannel[channel]
		if !ok {
			r = &domain.ChannelRole{Channel: channel}
			byChannel[channel] = r
		}
		return r
	}

	for _, j := range journeys {
		channels := j.Channels
		if len(channels) == 0 {
			continue
		}

		if len(channels) == 1 {
			role(channels[0]).Solo++
			continue
		}

		role(channels[0]).Introducer++
		role(channels[len(channels)-1]).Closer++
		for _, c := range channels[1 : len(channels)-1] {
			role(c).Supporter++
		}
	}

	roles := make([]domain.ChannelRole, 0, len(byChannel))
	for _, r := range byChannel {
		r.Total = r.Introducer + r.Closer + r.Supporter + r.Solo
		r.Role = dominantRole(r)
		roles = append(roles, *r)
	}

	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Total != roles[j].Total {
			return roles[i].Total > roles[j].Total
		}
		return roles[i].Channel < roles[j].Channel
	})

	return roles
}

// dominantRole picks isolated when solo appearances dominate, otherwise the
// largest positional count wins; ties resolve introducer, closer, supporter.
func dominantRole(r *domain.ChannelRole) string {
	if r.Total == 0 {
		return domain.RoleIsolated
	}
	if float64(r.Solo)/float64(r.Total) > isolationThreshold {
		return domain.RoleIsolated
	}

	role := domain.RoleIntroducer
	best := r.Introducer
	if r.Closer > best {
		role = domain.RoleCloser
		best = r.Closer
	}
	if r.Supporter > best {
		role = domain.RoleSupporter
	}
	return role
}
