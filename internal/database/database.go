package database

import (
	"fmt"
	"log/slog"

	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const globalBarcodeIndex = "idx_items_barcode_global"

func Connect(cfg *config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying db: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	log.Info("connected to database", "host", cfg.Host, "database", cfg.Name)

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Item{},
		&models.AuditEntry{},
	)
}

// EnsureBarcodeIndex adds or drops the store-wide unique index on
// items.barcode. The per-tenant composite index always exists.
func EnsureBarcodeIndex(db *gorm.DB, global bool) error {
	stmt := "DROP INDEX IF EXISTS " + globalBarcodeIndex
	if global {
		stmt = "CREATE UNIQUE INDEX IF NOT EXISTS " + globalBarcodeIndex + " ON items (barcode)"
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("barcode index: %w", err)
	}
	return nil
}

// Migrate creates the schema and applies the barcode uniqueness scope.
func Migrate(db *gorm.DB, globalBarcodes bool) error {
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureBarcodeIndex(db, globalBarcodes)
}
