package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host        string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
}

type Postgres struct {
	URL string `envconfig:"POSTGRES_URL" required:"true"`
}

type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port            string `envconfig:"CLICKHOUSE_PORT" required:"true"`
	Database        string `envconfig:"CLICKHOUSE_DB" required:"true"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type SQS struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"SQS_REGION" required:"true"`
}

type Batch struct {
	Size          int `envconfig:"BATCH_SIZE" default:"100"`
	MaxConcurrent int `envconfig:"BATCH_MAX_CONCURRENT" default:"5"`
	RetryAttempts int `envconfig:"BATCH_RETRY_ATTEMPTS" default:"3"`
	RetryDelayMs  int `envconfig:"BATCH_RETRY_DELAY_MS" default:"1000"`
}

type Cache struct {
	TTLSeconds int `envconfig:"ANALYTICS_CACHE_TTL_SEC" default:"300"`
}

type Worker struct {
	HealthCheckPort string `envconfig:"WORKER_HEALTH_CHECK_PORT" default:"8081"`
}

type Config struct {
	Service    Service
	Postgres   Postgres
	ClickHouse ClickHouse
	SQS        SQS
	Batch      Batch
	Cache      Cache
	Worker     Worker
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
