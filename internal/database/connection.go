// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipdesk/equipdesk-backend/internal/config"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	logLevel := logger.Info
	if cfg.LogLevel == "silent" {
		logLevel = logger.Silent
	}

	// TranslateError so unique-index races surface as gorm.ErrDuplicatedKey
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Operator{},
		&models.HardwareItem{},
		&models.SoftwareItem{},
		&models.EquipmentPackage{},
		&models.PackageVersion{},
		&models.PackageAssignment{},
		&models.LicensePool{},
		&models.LicenseAssignment{},
		&models.ApprovalRequest{},
		&models.ProvisioningTicket{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := MigrateLegacySeatCounts(db); err != nil {
		return fmt.Errorf("failed to migrate legacy seat counts: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// MigrateLegacySeatCounts moves the deprecated per-software seat field into
// LicensePool rows, once. After this runs, pools are the only source of
// truth for seat inventory.
func MigrateLegacySeatCounts(db *gorm.DB) error {
	var legacy []models.SoftwareItem
	if err := db.Where("legacy_seat_count > 0").Find(&legacy).Error; err != nil {
		return err
	}

	for _, software := range legacy {
		err := WithTransaction(db, func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.LicensePool{}).
				Where("software_id = ?", software.ID).
				Count(&count).Error; err != nil {
				return err
			}

			if count == 0 {
				pool := &models.LicensePool{
					SoftwareID: software.ID,
					TotalSeats: software.LegacySeatCount,
				}
				if err := tx.Create(pool).Error; err != nil {
					return err
				}
			}

			return tx.Model(&models.SoftwareItem{}).
				Where("id = ?", software.ID).
				Update("legacy_seat_count", 0).Error
		})
		if err != nil {
			return err
		}
	}

	if len(legacy) > 0 {
		log.Printf("Migrated %d legacy seat counts into license pools", len(legacy))
	}
	return nil
}

// SeedInitialData creates the bootstrap admin operator outside production.
func SeedInitialData(db *gorm.DB, environment string) error {
	if environment == "production" {
		return nil
	}

	var count int64
	if err := db.Model(&models.Operator{}).Where("role = ?", models.OperatorRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.Operator{
		Username: "admin",
		Email:    "admin@equipdesk.local",
		Role:     models.OperatorRoleAdmin,
		Status:   models.OperatorStatusActive,
	}
	if err := admin.SetPassword("ChangeMe123!"); err != nil {
		return err
	}

	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin operator: %w", err)
	}

	log.Println("Seeded default admin operator")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
