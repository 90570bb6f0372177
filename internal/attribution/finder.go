package attribution

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// SessionFinder locates and ranks candidate pixel sessions for a transaction.
type SessionFinder struct {
	users  repository.UserDirectory
	events repository.PixelEventStore
	log    *zap.Logger
}

// NewSessionFinder creates a new session finder
func NewSessionFinder(users repository.UserDirectory, events repository.PixelEventStore, log *zap.Logger) *SessionFinder {
	return &SessionFinder{
		users:  users,
		events: events,
		log:    log,
	}
}

// FindSessions resolves the email to a tracking pixel, loads events within
// windowHours around txnAt, and returns the grouped sessions ranked by
// composite score descending. The highest-ranked entry is the presumptive
// match. An unknown email or a user without a pixel yields an empty result.
func (f *SessionFinder) FindSessions(ctx context.Context, email string, txnAt time.Time, windowHours float64) ([]domain.PixelSession, error) {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}

	user, err := f.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email to user: %w", err)
	}
	if user == nil || user.PixelID == "" {
		f.log.Debug("No tracking pixel for email", zap.String("email", email))
		return nil, nil
	}

	window := time.Duration(windowHours * float64(time.Hour))
	events, err := f.events.ListEvents(ctx, user.PixelID, txnAt.Add(-window), txnAt.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list pixel events: %w", err)
	}

	sessions := GroupSessions(events)
	for i := range sessions {
		sessions[i].Score = CompositeScore(sessions[i], txnAt, windowHours)
	}

	// Stable sort: ties keep the original query order.
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Score > sessions[j].Score
	})

	f.log.Debug("Ranked candidate sessions",
		zap.String("pixel_id", user.PixelID),
		zap.Int("session_count", len(sessions)))

	return sessions, nil
}
