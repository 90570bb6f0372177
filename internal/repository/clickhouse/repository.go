package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Repository implements PixelEventStore and SecondaryStatsFeed on ClickHouse.
// Pixel events are append-only and high volume, which is exactly the shape
// ClickHouse handles well.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the pixel event and daily channel stat tables
func (r *Repository) InitSchema(ctx context.Context) error {
	eventsTable := `
	CREATE TABLE IF NOT EXISTS pixel_events (
		pixel_id String,
		session_id String,
		event_type LowCardinality(String),
		page_url String,
		referrer String,
		utm_source LowCardinality(String),
		utm_medium LowCardinality(String),
		utm_campaign String,
		utm_term String,
		utm_content String,
		timestamp DateTime64(3),
		metadata String
	) ENGINE = MergeTree()
	ORDER BY (pixel_id, timestamp, session_id)
	PARTITION BY toYYYYMM(timestamp)
	SETTINGS index_granularity = 8192
	`

	statsTable := `
	CREATE TABLE IF NOT EXISTS daily_channel_stats (
		user_id String,
		date Date,
		platform LowCardinality(String),
		channel LowCardinality(String),
		sessions UInt64,
		conversions UInt64
	) ENGINE = SummingMergeTree((sessions, conversions))
	ORDER BY (user_id, date, platform, channel)
	PARTITION BY toYYYYMM(date)
	`

	if err := r.client.Conn().Exec(ctx, eventsTable); err != nil {
		return fmt.Errorf("failed to create pixel_events table: %w", err)
	}
	if err := r.client.Conn().Exec(ctx, statsTable); err != nil {
		return fmt.Errorf("failed to create daily_channel_stats table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertEvents inserts a batch of pixel events
func (r *Repository) InsertEvents(ctx context.Context, events []domain.PixelEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO pixel_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	inserted := 0
	for _, event := range events {
		metadata := event.Metadata
		if metadata == "" {
			metadata = "{}"
		}

		err := batch.Append(
			event.PixelID,
			event.SessionID,
			event.EventType,
			event.PageURL,
			event.Referrer,
			event.UTMSource,
			event.UTMMedium,
			event.UTMCampaign,
			event.UTMTerm,
			event.UTMContent,
			event.Timestamp,
			metadata,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return inserted, nil
}

const eventColumns = `pixel_id, session_id, event_type, page_url, referrer,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content, timestamp, metadata`

// ListEvents returns all events for a pixel within [from, to], ordered by
// timestamp ascending.
func (r *Repository) ListEvents(ctx context.Context, pixelID string, from, to time.Time) ([]domain.PixelEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM pixel_events
		WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, eventColumns)

	rows, err := r.client.Conn().Query(ctx, query, pixelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query pixel events: %w", err)
	}

	return r.scanEvents(rows)
}

// ListEventsByUTM returns events within [from, to] matching every non-empty
// UTM filter field.
func (r *Repository) ListEventsByUTM(ctx context.Context, pixelID string, from, to time.Time, filter domain.UTMFilter) ([]domain.PixelEvent, error) {
	where := "WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?"
	args := []interface{}{pixelID, from, to}

	if filter.Source != "" {
		where += " AND utm_source = ?"
		args = append(args, filter.Source)
	}
	if filter.Medium != "" {
		where += " AND utm_medium = ?"
		args = append(args, filter.Medium)
	}
	if filter.Campaign != "" {
		where += " AND utm_campaign = ?"
		args = append(args, filter.Campaign)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM pixel_events
		%s
		ORDER BY timestamp ASC
	`, eventColumns, where)

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pixel events by utm: %w", err)
	}

	return r.scanEvents(rows)
}

func (r *Repository) scanEvents(rows driver.Rows) ([]domain.PixelEvent, error) {
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close pixel event rows", zap.Error(err))
		}
	}(rows)

	var events []domain.PixelEvent
	for rows.Next() {
		var e domain.PixelEvent
		if err := rows.Scan(
			&e.PixelID, &e.SessionID, &e.EventType, &e.PageURL, &e.Referrer,
			&e.UTMSource, &e.UTMMedium, &e.UTMCampaign, &e.UTMTerm, &e.UTMContent,
			&e.Timestamp, &e.Metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pixel event row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pixel event rows: %w", err)
	}

	return events, nil
}

// ListDailyChannelStats returns the secondary feed's channel stats for one
// user on one calendar day.
func (r *Repository) ListDailyChannelStats(ctx context.Context, userID string, day time.Time) ([]domain.DailyChannelStat, error) {
	query := `
		SELECT user_id, date, platform, channel, sum(sessions), sum(conversions)
		FROM daily_channel_stats
		WHERE user_id = ? AND date = toDate(?)
		GROUP BY user_id, date, platform, channel
	`

	rows, err := r.client.Conn().Query(ctx, query, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily channel stats: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close channel stat rows", zap.Error(err))
		}
	}(rows)

	var stats []domain.DailyChannelStat
	for rows.Next() {
		var s domain.DailyChannelStat
		if err := rows.Scan(&s.UserID, &s.Date, &s.Platform, &s.Channel, &s.Sessions, &s.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan channel stat row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel stat rows: %w", err)
	}

	return stats, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
