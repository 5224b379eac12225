package database

import (
	"fmt"

	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected, migration complete")
	return db, nil
}

// Migrate creates the schema. The partial index is what actually keeps an
// account from holding two pending bookings when requests race.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.Notification{},
		&models.Log{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_one_pending
		ON bookings (user_id) WHERE status = 'pending'`).Error; err != nil {
		return fmt.Errorf("create pending booking index: %w", err)
	}
	return nil
}
