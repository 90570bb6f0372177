package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Settled payment event kinds as produced by the external payment sync.
const (
	TxnKindChargeSettled   = "charge.settled"
	TxnKindTransferSettled = "transfer.settled"
)

// SettledKinds lists the event kinds that count as real, money-moving sales.
var SettledKinds = []string{TxnKindChargeSettled, TxnKindTransferSettled}

// Transaction is an external payment record. It is created by the payment
// sync process and consumed once by the attribution engine.
type Transaction struct {
	ID        string            `gorm:"column:transaction_id;primaryKey" json:"transaction_id"`
	UserID    string            `gorm:"index" json:"user_id,omitempty"`
	Email     string            `gorm:"index" json:"email"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Platform  string            `json:"platform"`
	Kind      string            `gorm:"index" json:"kind"`
	Timestamp time.Time         `gorm:"index" json:"timestamp"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// UserRecord is the directory entry linking a payment email to a tracking pixel.
type UserRecord struct {
	ID      string `gorm:"column:id;primaryKey" json:"id"`
	Email   string `gorm:"uniqueIndex" json:"email"`
	PixelID string `gorm:"column:pixel_id" json:"pixel_id"`
}

// TableName keeps the users table name stable.
func (UserRecord) TableName() string { return "users" }
