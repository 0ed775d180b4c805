package database

import (
	"fmt"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/config"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres when DATABASE_URL is set and to the local
// SQLite file otherwise.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
		log.Info("using postgres")
	} else {
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
		log.Info("using sqlite", zap.String("path", cfg.SQLitePath))
	}

	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, GormConfig(NewLogger(log, level)))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL != "" {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// GormConfig is shared by Open and the in-memory test databases.
func GormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         l,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Shop{},
		&models.Category{},
		&models.User{},
		&models.Good{},
		&models.Sale{},
		&models.Debt{},
		&models.DebtItem{},
		&models.DebtPayment{},
		&models.Expense{},
		&models.StockReceipt{},
		&models.StockMovement{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
