package repository

import (
	"context"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// TransactionSource lists synced payment transactions, filterable by event
// kind. An empty userID means all users.
type TransactionSource interface {
	ListTransactions(ctx context.Context, userID string, kinds []string, from, to time.Time) ([]domain.Transaction, error)
}

// PixelEventStore reads browser pixel events for one tracking pixel within
// a time window.
type PixelEventStore interface {
	ListEvents(ctx context.Context, pixelID string, from, to time.Time) ([]domain.PixelEvent, error)
	ListEventsByUTM(ctx context.Context, pixelID string, from, to time.Time, filter domain.UTMFilter) ([]domain.PixelEvent, error)
}

// SecondaryStatsFeed reads the secondary analytics feed's per-day channel
// stats for one user.
type SecondaryStatsFeed interface {
	ListDailyChannelStats(ctx context.Context, userID string, day time.Time) ([]domain.DailyChannelStat, error)
}

// SpendFeed reads ad-platform spend reports for one user in a time range.
type SpendFeed interface {
	ListSpendRecords(ctx context.Context, userID string, from, to time.Time) ([]domain.SpendRecord, error)
}

// SpendWriter stores spend records fetched from a platform sync.
type SpendWriter interface {
	InsertSpendRecords(ctx context.Context, records []domain.SpendRecord) error
}

// ConversionRepository persists verified conversions. InsertIfAbsent is
// unique on transaction id: on conflict it returns the existing row instead
// of erroring, which makes attribution retry-safe.
type ConversionRepository interface {
	InsertIfAbsent(ctx context.Context, conversion *domain.VerifiedConversion) (*domain.VerifiedConversion, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]domain.VerifiedConversion, error)
	ExistingTransactionIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// UserDirectory resolves a payment email (trimmed, case-insensitive) to the
// user and tracking pixel behind it. A nil record means no such user.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
}
