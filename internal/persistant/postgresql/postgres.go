package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/aniladanir/retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the db session, retrying while the server comes up, and
// auto migrates given models
func Initialize(connStr string, models []any) (*gorm.DB, error) {
	retrier, err := retry.New(retry.WithMaxAttemps(5))
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	var (
		db      *gorm.DB
		openErr error
	)
	connect := func(attempt int) (terminate bool) {
		db, openErr = gorm.Open(postgres.Open(connStr), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if openErr != nil {
			return false
		}
		sqlDb, err := db.DB()
		if err != nil {
			openErr = err
			return false
		}
		openErr = sqlDb.Ping()
		return openErr == nil
	}

	if ok := <-retrier.Retry(context.Background(), connect, true); !ok || openErr != nil {
		if openErr == nil {
			openErr = errors.New("retries exhausted")
		}
		return nil, fmt.Errorf("connect postgres: %w", openErr)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDb.Close()
}
