package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Confidence levels and attribution methods. These string values are part of
// the persisted schema and must not change.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	MethodDualVerified = "dual_verified"
	MethodSingleSource = "single_source"
	MethodUncertain    = "uncertain"
)

// DefaultChannel is persisted when no pixel session could be matched.
const DefaultChannel = "direct"

// AttributionMatch is the transient evidence gathered for one transaction.
// It exists only within a single Attribute call.
type AttributionMatch struct {
	PixelMatched      bool
	PixelChannel      string
	MatchedSessionID  string
	TimeProximity     float64
	HasConversion     bool
	UTMCompleteness   float64
	CandidateSessions []string

	SecondaryMatched bool
	SecondaryChannel string
	HasTraffic       bool
	ConversionCount  int

	// ConflictReason is set when the pixel and secondary feeds name
	// different channels for the same transaction.
	ConflictReason string
}

// ConfidenceResult is the deterministic scoring outcome for a match.
type ConfidenceResult struct {
	Score  int    `json:"confidence_score"`
	Level  string `json:"confidence_level"`
	Method string `json:"attribution_method"`
}

// VerifiedConversion is the persisted attribution outcome, unique per
// transaction id. Re-attribution of the same transaction returns the
// existing row instead of inserting a duplicate.
type VerifiedConversion struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	UserID             string                      `gorm:"index" json:"user_id,omitempty"`
	TransactionID      string                      `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Email              string                      `gorm:"index" json:"email"`
	Amount             float64                     `json:"amount"`
	Currency           string                      `json:"currency"`
	PixelSessionID     string                      `json:"pixel_session_id,omitempty"`
	AttributedChannel  string                      `gorm:"index" json:"attributed_channel"`
	ConfidenceScore    int                         `json:"confidence_score"`
	ConfidenceLevel    string                      `json:"confidence_level"`
	AttributionMethod  string                      `json:"attribution_method"`
	OverAttributed     bool                        `json:"over_attributed"`
	ConflictingSources datatypes.JSONSlice[string] `json:"conflicting_sources,omitempty"`
	TransactionAt      time.Time                   `gorm:"index" json:"transaction_at"`
	Metadata           datatypes.JSONMap           `gorm:"type:jsonb" json:"metadata,omitempty"`
}
