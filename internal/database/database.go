package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chantier-rapports/pkg/models"
)

type DB struct {
	*gorm.DB
}

// Connect ouvre la base PostgreSQL et vérifie la connexion
func Connect(ctx context.Context, databaseURL string, logLevel string) (*DB, error) {
	db, err := Open(postgres.Open(databaseURL), logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Ctx(ctx).Info().Msg("Database connection established")
	return db, nil
}

// Open applique la configuration commune à tous les dialectes
func Open(dialector gorm.Dialector, logLevel string) (*DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc:        Now,
		Logger:         NewLogAdapter(gormLogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// Now : horodatage UTC tronqué à la milliseconde
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

func (db *DB) Migrate(ctx context.Context) error {
	log.Ctx(ctx).Info().Msg("Running database migrations...")

	if err := db.WithContext(ctx).AutoMigrate(&models.Rapport{}); err != nil {
		return fmt.Errorf("failed to migrate Rapport: %w", err)
	}

	log.Ctx(ctx).Info().Msg("Database migrations completed")
	return nil
}

// Ping est utilisé par le health check
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
