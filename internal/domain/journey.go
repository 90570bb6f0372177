package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Touchpoint is one session's first interaction, representing one step in a
// multi-touch journey.
type Touchpoint struct {
	SessionID  string    `json:"session_id"`
	Channel    string    `json:"channel"`
	Timestamp  time.Time `json:"timestamp"`
	UTM        UTMParams `json:"utm"`
	EventCount int       `json:"event_count"`
}

// ConversionJourney is the reconstructed path of channels that led to one
// verified conversion. Derived per analysis window, never persisted.
// Channels collapses consecutive duplicates only; a channel reappearing
// non-consecutively still counts twice.
type ConversionJourney struct {
	TransactionID string       `json:"transaction_id"`
	Revenue       float64      `json:"revenue"`
	Channels      []string     `json:"channels"`
	Touchpoints   []Touchpoint `json:"touchpoints"`
	IsMultiTouch  bool         `json:"is_multi_touch"`
	ConvertedAt   time.Time    `json:"converted_at"`
}

// Performance rating tiers by ROI threshold.
const (
	RatingExceptional  = "exceptional"
	RatingExcellent    = "excellent"
	RatingSatisfactory = "satisfactory"
	RatingPoor         = "poor"
	RatingFailing      = "failing"
)

// ChannelPerformance aggregates settled revenue, conversions and ad spend
// for one channel over an analysis window.
type ChannelPerformance struct {
	Channel     string  `json:"channel"`
	Revenue     float64 `json:"revenue"`
	Conversions int     `json:"conversions"`
	Spend       float64 `json:"spend"`
	ROI         float64 `json:"roi"`
	Rating      string  `json:"rating"`
}

// MarshalJSON emits null for an infinite ROI, which zero spend with revenue
// produces and a JSON number cannot represent.
func (p ChannelPerformance) MarshalJSON() ([]byte, error) {
	type channelPerformance ChannelPerformance
	out := struct {
		channelPerformance
		ROI *float64 `json:"roi"`
	}{channelPerformance: channelPerformance(p)}
	if !math.IsInf(p.ROI, 0) {
		out.ROI = &p.ROI
	}
	return json.Marshal(out)
}

// ChannelSynergy scores how much better a channel pair performs together
// than either channel alone.
type ChannelSynergy struct {
	ChannelA       string  `json:"channel_a"`
	ChannelB       string  `json:"channel_b"`
	Frequency      int     `json:"frequency"`
	AvgPairRevenue float64 `json:"avg_pair_revenue"`
	SoloAvgA       float64 `json:"solo_avg_a"`
	SoloAvgB       float64 `json:"solo_avg_b"`
	SynergyScore   float64 `json:"synergy_score"`
	Confidence     float64 `json:"confidence"`
}

// Funnel roles a channel can play across journeys.
const (
	RoleIntroducer = "introducer"
	RoleCloser     = "closer"
	RoleSupporter  = "supporter"
	RoleIsolated   = "isolated"
)

// ChannelRole classifies the funnel position a channel most often occupies.
type ChannelRole struct {
	Channel    string `json:"channel"`
	Introducer int    `json:"introducer"`
	Closer     int    `json:"closer"`
	Supporter  int    `json:"supporter"`
	Solo       int    `json:"solo"`
	Total      int    `json:"total"`
	Role       string `json:"role"`
}

// JourneyPattern groups journeys sharing the exact same ordered channel
// sequence.
type JourneyPattern struct {
	Path         []string `json:"path"`
	Key          string   `json:"key"`
	Frequency    int      `json:"frequency"`
	TotalRevenue float64  `json:"total_revenue"`
	AvgRevenue   float64  `json:"avg_revenue"`
}

// Recommendation priorities and rule types.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	RecommendationScaleSynergy  = "scale_synergy"
	RecommendationStopChannel   = "stop_channel"
	RecommendationOptimizeSpend = "optimize_channel"
)

// Recommendation is one rule-engine output with an estimated financial
// impact and a qualitative reason.
type Recommendation struct {
	Type            string   `json:"type"`
	Priority        string   `json:"priority"`
	Channels        []string `json:"channels"`
	Reason          string   `json:"reason"`
	EstimatedImpact float64  `json:"estimated_impact"`
}
