package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DailyChannelStat is one row of the secondary analytics feed: per-user,
// per-day traffic and conversions observed for a channel, as stored in
// ClickHouse.
type DailyChannelStat struct {
	UserID      string    `ch:"user_id" json:"user_id"`
	Date        time.Time `ch:"date" json:"date"`
	Platform    string    `ch:"platform" json:"platform"`
	Channel     string    `ch:"channel" json:"channel"`
	Sessions    uint64    `ch:"sessions" json:"sessions"`
	Conversions uint64    `ch:"conversions" json:"conversions"`
}

// ActionStat is a nested ad-platform action (e.g. a Meta "purchase" action)
// reported inside a spend record.
type ActionStat struct {
	ActionType string  `json:"action_type"`
	Value      float64 `json:"value"`
}

// SpendRecord is one ad-platform spend report row: how much was spent on a
// channel and how many conversions the platform claims for it.
type SpendRecord struct {
	ID          uint                            `gorm:"primaryKey" json:"-"`
	UserID      string                          `gorm:"index" json:"user_id"`
	Platform    string                          `json:"platform"`
	Channel     string                          `gorm:"index" json:"channel"`
	Spend       float64                         `json:"spend"`
	Conversions float64                         `json:"conversions"`
	Actions     datatypes.JSONSlice[ActionStat] `json:"actions,omitempty"`
	Date        time.Time                       `gorm:"index" json:"date"`
}
