// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger. TranslateError is required: the materialization
	// and seat-accounting paths rely on gorm.ErrDuplicatedKey to recognize
	// the expected uniqueness races.
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		}
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

	// Run auto-migrations; UUIDs are assigned in BeforeCreate, so no
	// database extension is needed.
	err := db.AutoMigrate(
		&models.User{},
		&models.Resource{},
		&models.Purchase{},
		&models.PurchaseUser{},
		&models.Sale{},
		&models.BalanceLedgerEntry{},
		&models.SellerTier{},
		&models.WithdrawalRequest{},
		&models.PlatformSetting{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// The partial unique indexes below are safety-critical, not performance
	// tuning: they are the at-most-once guarantee for the webhook/poll race.
	criticalIndexes := []string{
		// One completed single-license purchase per buyer per resource.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_purchases_single_completed
			ON purchases(resource_id, buyer_id)
			WHERE status = 'completed' AND license_type = 'single' AND deleted_at IS NULL`,
		// One completed shared license per resource per school domain.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_purchases_shared_completed
			ON purchases(resource_id, school_domain)
			WHERE status = 'completed' AND license_type IN ('department', 'school') AND deleted_at IS NULL`,
	}

	for _, index := range criticalIndexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create unique index: %w", err)
		}
	}

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",

		// Resource indexes
		"CREATE INDEX IF NOT EXISTS idx_resources_seller ON resources(seller_id)",
		"CREATE INDEX IF NOT EXISTS idx_resources_status ON resources(status)",
		"CREATE INDEX IF NOT EXISTS idx_resources_created_at ON resources(created_at DESC)",

		// Purchase indexes
		"CREATE INDEX IF NOT EXISTS idx_purchases_buyer ON purchases(buyer_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_session ON purchases(external_session_id)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_seller_date ON sales(seller_id, sale_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status)",

		// Ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_ledger_seller_currency_created ON balance_ledger_entries(seller_id, currency, created_at)",

		// Withdrawal indexes
		"CREATE INDEX IF NOT EXISTS idx_withdrawals_seller_requested ON withdrawal_requests(seller_id, requested_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawal_requests(status)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@edumarket.com",
			Role:     models.UserRoleAdmin,
			Status:   models.UserStatusActive,
			Country:  "GB",
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Create default platform settings
	defaultSettings := []models.PlatformSetting{
		{
			Category:    "tiers",
			Key:         "bronze_rate_bps",
			Value:       models.JSONB{"value": 6000},
			DataType:    "integer",
			Description: "Bronze royalty rate in basis points",
		},
		{
			Category:    "tiers",
			Key:         "silver_threshold_cents",
			Value:       models.JSONB{"value": 100000},
			DataType:    "integer",
			Description: "Trailing-12-month sales required for silver, minor units",
		},
		{
			Category:    "tiers",
			Key:         "silver_rate_bps",
			Value:       models.JSONB{"value": 7000},
			DataType:    "integer",
			Description: "Silver royalty rate in basis points",
		},
		{
			Category:    "tiers",
			Key:         "gold_threshold_cents",
			Value:       models.JSONB{"value": 1000000},
			DataType:    "integer",
			Description: "Trailing-12-month sales required for gold, minor units",
		},
		{
			Category:    "tiers",
			Key:         "gold_rate_bps",
			Value:       models.JSONB{"value": 8000},
			DataType:    "integer",
			Description: "Gold royalty rate in basis points",
		},
		{
			Category:    "withdrawals",
			Key:         "minimum_cents",
			Value:       models.JSONB{"value": 1000},
			DataType:    "integer",
			Description: "Minimum withdrawal amount, minor units",
		},
		{
			Category:    "withdrawals",
			Key:         "maximum_cents",
			Value:       models.JSONB{"value": 1000000},
			DataType:    "integer",
			Description: "Maximum withdrawal amount, minor units",
		},
		{
			Category:    "withdrawals",
			Key:         "frequency_days",
			Value:       models.JSONB{"value": 7},
			DataType:    "integer",
			Description: "Rolling window allowing one withdrawal request per seller",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.PlatformSetting{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			// Get admin user ID for the UpdatedBy field
			var admin models.User
			if err := db.Where("role = ?", models.UserRoleAdmin).First(&admin).Error; err == nil {
				setting.UpdatedBy = admin.ID
				if err := db.Create(&setting).Error; err != nil {
					log.Printf("Warning: Failed to create setting %s.%s: %v", setting.Category, setting.Key, err)
				}
			}
		}
	}

	log.Println("Initial data seeding completed")
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
