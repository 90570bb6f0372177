package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Repository implements TransactionSource, SpendFeed, SpendWriter,
// ConversionRepository and UserDirectory on Postgres.
type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRepository creates a new Postgres repository
func NewRepository(db *gorm.DB, log *zap.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log,
	}
}

// ListTransactions returns transactions in [from, to], optionally filtered
// by user and event kinds, ordered by timestamp ascending.
func (r *Repository) ListTransactions(ctx context.Context, userID string, kinds []string, from, to time.Time) ([]domain.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", from, to).
		Order("timestamp ASC")

	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}

	var txns []domain.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txns, nil
}

// ListSpendRecords returns ad spend records for a user in [from, to].
func (r *Repository) ListSpendRecords(ctx context.Context, userID string, from, to time.Time) ([]domain.SpendRecord, error) {
	var records []domain.SpendRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list spend records: %w", err)
	}

	return records, nil
}

// InsertSpendRecords stores spend records fetched by a platform sync.
func (r *Repository) InsertSpendRecords(ctx context.Context, records []domain.SpendRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert spend records: %w", err)
	}

	return nil
}

// InsertIfAbsent persists a verified conversion unless one already exists
// for the same transaction id, in which case the existing row is returned.
// The unique index on transaction_id is the sole cross-worker coordination
// point: first writer wins, losers read back the winner's row.
func (r *Repository) InsertIfAbsent(ctx context.Context, conversion *domain.VerifiedConversion) (*domain.VerifiedConversion, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(conversion)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to insert verified conversion: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		return conversion, nil
	}

	// Lost the insert race or re-attributed: read back the winner.
	var existing domain.VerifiedConversion
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", conversion.TransactionID).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read back existing conversion %s: %w", conversion.TransactionID, err)
	}

	r.log.Debug("Returning existing verified conversion",
		zap.String("transaction_id", existing.TransactionID),
		zap.String("attributed_channel", existing.AttributedChannel))

	return &existing, nil
}

// ListByUser returns verified conversions for a user in [from, to], ordered
// by transaction time ascending.
func (r *Repository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]domain.VerifiedConversion, error) {
	var conversions []domain.VerifiedConversion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_at >= ? AND transaction_at <= ?", userID, from, to).
		Order("transaction_at ASC").
		Find(&conversions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verified conversions: %w", err)
	}

	return conversions, nil
}

// ExistingTransactionIDs reports which of the given transaction ids already
// have a verified conversion.
func (r *Repository) ExistingTransactionIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.WithContext(ctx).
		Model(&domain.VerifiedConversion{}).
		Where("transaction_id IN ?", ids).
		Pluck("transaction_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing transaction ids: %w", err)
	}

	for _, id := range found {
		existing[id] = true
	}

	return existing, nil
}

// FindByEmail resolves a payment email to its user record. The lookup is
// whitespace-trimmed and case-insensitive. Returns nil when no user matches.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}

	var users []domain.UserRecord
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", normalized).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	return &users[0], nil
}
