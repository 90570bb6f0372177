package postgres

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	envConfig "github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Connect opens a GORM connection to Postgres and migrates the relational
// tables: users, transactions, verified conversions and spend records.
func Connect(cfg *envConfig.Postgres, log *zap.Logger) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.URL)
	if dsn == "" {
		return nil, errors.New("POSTGRES_URL is required")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("POSTGRES_URL must be a postgres:// or postgresql:// URL")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&domain.UserRecord{},
		&domain.Transaction{},
		&domain.VerifiedConversion{},
		&domain.SpendRecord{},
	); err != nil {
		return nil, err
	}

	log.Info("Postgres connection established successfully")
	return db, nil
}
