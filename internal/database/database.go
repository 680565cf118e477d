package database

import (
	"fmt"

	"github.com/gdg-garage/cabin-booking-api/internal/config"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dialector, err := Dialector(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logrus.Fatalf("Failed to select database driver: %v", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		logrus.Fatalf("Failed to auto migrate: %v", err)
	}

	if err := EnsureSettings(db, cfg.MinBookingLength, cfg.MaxBookingLength); err != nil {
		logrus.Fatalf("Failed to seed settings: %v", err)
	}

	return db
}

// Dialector maps a DATABASE_DRIVER value onto its gorm driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Cabin{}, &models.Guest{}, &models.Booking{}, &models.Settings{})
}

// EnsureSettings stores the configured booking limits when no settings row exists yet.
func EnsureSettings(db *gorm.DB, minLength, maxLength int) error {
	var settings models.Settings
	return db.Where(models.Settings{}).
		Attrs(models.Settings{MinBookingLength: minLength, MaxBookingLength: maxLength}).
		FirstOrCreate(&settings).Error
}
