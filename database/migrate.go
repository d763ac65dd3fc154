// Package database opens the postgres connection and migrates the schema.
package database

import (
	"fmt"
	"time"

	"eventhire_backend/internal/config"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a pooled gorm connection from the database config and
// checks that it answers.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:  logger.NewGormLogger(cfg.Server.Env),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.RefreshToken{},
		&models.ProfessionalProfile{},
		&models.OrganizerProfile{},
		&models.Conversation{},
		&models.Message{},
		&models.ServiceRequest{},
		&models.Payment{},
		&models.Feedback{},
	}
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	start := time.Now()
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("AutoMigrate completed", "duration", time.Since(start).String())
	return nil
}
