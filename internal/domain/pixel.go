package domain

import (
	"strings"
	"time"
)

// Pixel event kinds emitted by the browser tracking script.
const (
	EventTypePageView   = "page_view"
	EventTypeConversion = "conversion"
	EventTypeCustom     = "custom"
)

// UTMParams is the five-field UTM snapshot attached to a pixel event.
type UTMParams struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

// PixelEvent is a single browser event as stored in ClickHouse.
type PixelEvent struct {
	PixelID     string    `ch:"pixel_id" json:"pixel_id"`
	SessionID   string    `ch:"session_id" json:"session_id"`
	EventType   string    `ch:"event_type" json:"event_type"`
	PageURL     string    `ch:"page_url" json:"page_url"`
	Referrer    string    `ch:"referrer" json:"referrer"`
	UTMSource   string    `ch:"utm_source" json:"utm_source"`
	UTMMedium   string    `ch:"utm_medium" json:"utm_medium"`
	UTMCampaign string    `ch:"utm_campaign" json:"utm_campaign"`
	UTMTerm     string    `ch:"utm_term" json:"utm_term"`
	UTMContent  string    `ch:"utm_content" json:"utm_content"`
	Timestamp   time.Time `ch:"timestamp" json:"timestamp"`
	Metadata    string    `ch:"metadata" json:"metadata,omitempty"`
}

// UTM returns the event's UTM fields as a snapshot.
func (e PixelEvent) UTM() UTMParams {
	return UTMParams{
		Source:   e.UTMSource,
		Medium:   e.UTMMedium,
		Campaign: e.UTMCampaign,
		Term:     e.UTMTerm,
		Content:  e.UTMContent,
	}
}

// PixelSession is the in-memory aggregate of all pixel events sharing a
// session id. It is recomputed per query and never persisted. The UTM
// snapshot always comes from the session's first event.
type PixelSession struct {
	SessionID     string    `json:"session_id"`
	PixelID       string    `json:"pixel_id"`
	FirstEventAt  time.Time `json:"first_event_at"`
	LastEventAt   time.Time `json:"last_event_at"`
	UTM           UTMParams `json:"utm"`
	HasConversion bool      `json:"has_conversion"`
	EventCount    int       `json:"event_count"`

	// Score is the composite ranking score, filled in during candidate
	// ranking only. It is never surfaced to callers.
	Score float64 `json:"-"`
}

// UTMFilter narrows a pixel event query to matching non-empty UTM fields.
type UTMFilter struct {
	Source   string
	Medium   string
	Campaign string
}

// NormalizeChannel lowercases and trims a channel label so labels from
// different feeds compare equal.
func NormalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimSpace(channel))
}

// ChannelFromUTM derives the marketing channel for a session's UTM snapshot:
// utm_source, falling back to utm_medium, falling back to "unknown".
func ChannelFromUTM(utm UTMParams) string {
	if c := NormalizeChannel(utm.Source); c != "" {
		return c
	}
	if c := NormalizeChannel(utm.Medium); c != "" {
		return c
	}
	return "unknown"
}
