package attribution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/metrics"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// overAttributionLookback is the range checked for platform over-claiming
// before each transaction.
const overAttributionLookback = 7 * 24 * time.Hour

// Engine ties session matching, secondary validation, over-attribution
// detection and confidence scoring into a per-transaction Attribute call.
type Engine struct {
	finder      *SessionFinder
	secondary   *SecondaryValidator
	overAttr    *OverAttributionDetector
	conversions repository.ConversionRepository
	log         *zap.Logger
}

// NewEngine creates a new attribution engine
func NewEngine(
	finder *SessionFinder,
	secondary *SecondaryValidator,
	overAttr *OverAttributionDetector,
	conversions repository.ConversionRepository,
	log *zap.Logger,
) *Engine {
	return &Engine{
		finder:      finder,
		secondary:   secondary,
		overAttr:    overAttr,
		conversions: conversions,
		log:         log,
	}
}

// Attribute matches one transaction to its marketing channel and persists
// the verified conversion. Attributing the same transaction id twice
// returns the existing row, so retries are safe.
func (e *Engine) Attribute(ctx context.Context, userID string, txn domain.Transaction) (*domain.VerifiedConversion, error) {
	start := time.Now()
	defer func() {
		metrics.AttributionDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(txn.ID) == "" {
		return nil, fmt.Errorf("malformed transaction: missing id")
	}
	if strings.TrimSpace(txn.Email) == "" {
		return nil, fmt.Errorf("malformed transaction %s: missing email", txn.ID)
	}

	sessions, err := e.finder.FindSessions(ctx, txn.Email, txn.Timestamp, DefaultWindowHours)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate sessions for %s: %w", txn.ID, err)
	}

	match := e.buildMatch(ctx, userID, txn, sessions)
	confidence := ConfidenceScore(match)

	overAttributed := false
	if userID != "" {
		report := e.overAttr.Detect(ctx, userID, txn.Timestamp.Add(-overAttributionLookback), txn.Timestamp)
		overAttributed = report.IsOverAttributed
		if overAttributed {
			e.log.Warn("Platform over-attribution detected",
				zap.String("user_id", userID),
				zap.Int("actual_sales", report.ActualSales),
				zap.Float64("platform_claimed", report.PlatformClaimed))
		}
	}

	channel := domain.DefaultChannel
	if match.PixelMatched {
		channel = match.PixelChannel
	}

	var conflicting []string
	if match.ConflictReason != "" {
		conflicting = []string{match.PixelChannel, match.SecondaryChannel}
	}

	conversion := &domain.VerifiedConversion{
		UserID:             userID,
		TransactionID:      txn.ID,
		Email:              strings.ToLower(strings.TrimSpace(txn.Email)),
		Amount:             txn.Amount,
		Currency:           txn.Currency,
		PixelSessionID:     match.MatchedSessionID,
		AttributedChannel:  channel,
		ConfidenceScore:    confidence.Score,
		ConfidenceLevel:    confidence.Level,
		AttributionMethod:  confidence.Method,
		OverAttributed:     overAttributed,
		ConflictingSources: datatypes.JSONSlice[string](conflicting),
		TransactionAt:      txn.Timestamp,
		Metadata:           txn.Metadata,
	}

	persisted, err := e.conversions.InsertIfAbsent(ctx, conversion)
	if err != nil {
		return nil, fmt.Errorf("failed to persist verified conversion for %s: %w", txn.ID, err)
	}

	metrics.AttributionsTotal.WithLabelValues(persisted.ConfidenceLevel, persisted.AttributionMethod).Inc()

	e.log.Info("Transaction attributed",
		zap.String("transaction_id", persisted.TransactionID),
		zap.String("attributed_channel", persisted.AttributedChannel),
		zap.Int("confidence_score", persisted.ConfidenceScore),
		zap.String("confidence_level", persisted.ConfidenceLevel),
		zap.String("attribution_method", persisted.AttributionMethod))

	return persisted, nil
}

// buildMatch assembles the transient evidence record for one transaction.
func (e *Engine) buildMatch(ctx context.Context, userID string, txn domain.Transaction, sessions []domain.PixelSession) domain.AttributionMatch {
	var match domain.AttributionMatch

	if len(sessions) > 0 {
		top := sessions[0]

		candidates := make([]string, 0, len(sessions))
		for _, s := range sessions {
			candidates = append(candidates, s.SessionID)
		}

		match.PixelMatched = true
		match.PixelChannel = domain.ChannelFromUTM(top.UTM)
		match.MatchedSessionID = top.SessionID
		match.TimeProximity = TimeProximity(top.LastEventAt, txn.Timestamp, DefaultWindowHours)
		match.HasConversion = top.HasConversion
		match.UTMCompleteness = UTMCompleteness(top.UTM)
		match.CandidateSessions = candidates
	}

	if userID == "" {
		return match
	}

	signal := e.secondary.Validate(ctx, userID, match.PixelChannel, txn.Timestamp)
	match.SecondaryMatched = signal.Matched
	match.SecondaryChannel = signal.Channel
	match.HasTraffic = signal.HasTraffic
	match.ConversionCount = signal.ConversionCount

	if match.PixelChannel != "" && signal.Channel != "" &&
		domain.NormalizeChannel(match.PixelChannel) != domain.NormalizeChannel(signal.Channel) {
		match.ConflictReason = fmt.Sprintf("channel_mismatch: pixel=%s secondary=%s",
			match.PixelChannel, signal.Channel)
		e.log.Warn("Cross-source channel conflict",
			zap.String("transaction_id", txn.ID),
			zap.String("pixel_channel", match.PixelChannel),
			zap.String("secondary_channel", signal.Channel))
	}

	return match
}
