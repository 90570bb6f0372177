package attribution

import (
	"sort"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// GroupSessions partitions pixel events by session id and aggregates each
// group into a PixelSession. Events inside a group are ordered by timestamp;
// the UTM snapshot always comes from the group's first event. Sessions are
// returned in first-seen order of their session id, so downstream stable
// sorts preserve the original query order on ties.
func GroupSessions(events []domain.PixelEvent) []domain.PixelSession {
	if len(events) == 0 {
		return nil
	}

	grouped := make(map[string][]domain.PixelEvent)
	order := make([]string, 0)
	for _, e := range events {
		if _, seen := grouped[e.SessionID]; !seen {
			order = append(order, e.SessionID)
		}
		grouped[e.SessionID] = append(grouped[e.SessionID], e)
	}

	sessions := make([]domain.PixelSession, 0, len(order))
	for _, sessionID := range order {
		group := grouped[sessionID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		first := group[0]
		last := group[len(group)-1]

		hasConversion := false
		for _, e := range group {
			if e.EventType == domain.EventTypeConversion {
				hasConversion = true
				break
			}
		}

		sessions = append(sessions, domain.PixelSession{
			SessionID:     sessionID,
			PixelID:       first.PixelID,
			FirstEventAt:  first.Timestamp,
			LastEventAt:   last.Timestamp,
			UTM:           first.UTM(),
			HasConversion: hasConversion,
			EventCount:    len(group),
		})
	}

	return sessions
}
