package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"apicatalog/internal/config"
	"apicatalog/internal/model"
)

func New(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql db failed: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// sqlite serializes writers; a single connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping %s failed: %w", driver, err)
	}

	return db, nil
}

// Migrate creates or updates every catalog table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.APIEntry{}, &model.Like{}, &model.Follow{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
