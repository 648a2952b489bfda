package database

import (
	"fmt"
	"log"

	"backoffice-service/internal/model"
	"backoffice-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB initializes the database connection with configuration and runs migrations
func InitDB(config *config.Config) error {
	var err error

	// Configure GORM logger
	logLevel := logger.Error
	if config.Server.Env == "development" {
		logLevel = logger.Info
	}

	// Create DSN string
	dsn := config.DB.GetDSN()

	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	// Open connection
	db, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return err
	}

	// Get generic database object SQL
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get database object: %v", err)
		return err
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(config.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.DB.ConnMaxLifetime)

	// Run migrations
	if err := db.AutoMigrate(
		&model.Product{},
		&model.BundleComponent{},
		&model.StockMovement{},
		&model.Order{},
		&model.Shipment{},
		&model.Invoice{},
		&model.InvoiceCounter{},
		&model.OrderStatus{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if err := seed(db); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	return nil
}

// seed populates the status catalog and the invoice counter on first run
func seed(db *gorm.DB) error {
	var statusCount int64
	if err := db.Model(&model.OrderStatus{}).Count(&statusCount).Error; err != nil {
		return err
	}
	if statusCount == 0 {
		if err := db.Create(model.SeedStatuses()).Error; err != nil {
			return err
		}
	}

	var counterCount int64
	if err := db.Model(&model.InvoiceCounter{}).Count(&counterCount).Error; err != nil {
		return err
	}
	if counterCount == 0 {
		if err := db.Create(&model.InvoiceCounter{NextNumber: 1}).Error; err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}
