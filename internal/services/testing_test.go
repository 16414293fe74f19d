// internal/services/testing_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipdesk/equipdesk-backend/internal/config"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

// newTestDB opens a fresh in-memory database per test. A single connection
// keeps the :memory: database alive for the test's duration.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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
	))

	return db
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Frontend.BaseURL = "http://localhost:3000"
	return cfg
}

func createTestHardware(t *testing.T, db *gorm.DB, model string) *models.HardwareItem {
	t.Helper()
	hardware := &models.HardwareItem{
		Model:  model,
		Status: models.CatalogStatusActive,
	}
	require.NoError(t, db.Create(hardware).Error)
	return hardware
}

func createTestSoftware(t *testing.T, db *gorm.DB, name string, requiresApproval bool) *models.SoftwareItem {
	t.Helper()
	software := &models.SoftwareItem{
		Name:             name,
		Cost:             12.50,
		CostFrequency:    models.CostFrequencyMonthly,
		RequiresApproval: requiresApproval,
		Status:           models.CatalogStatusActive,
	}
	require.NoError(t, db.Create(software).Error)
	return software
}

func createTestOperator(t *testing.T, db *gorm.DB, username string) *models.Operator {
	t.Helper()
	operator := &models.Operator{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     models.OperatorRoleOperator,
		Status:   models.OperatorStatusActive,
	}
	require.NoError(t, operator.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(operator).Error)
	return operator
}
