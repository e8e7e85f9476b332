package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"authsync-platform/internal/config"
	"authsync-platform/internal/models"
	"authsync-platform/internal/observability/metrics"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Initialize opens the Postgres connection, runs schema migration for the
// sync-owned tables, and wires GORM observability callbacks.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Customer{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Register observability GORM callbacks
	metrics.RegisterGORMCallbacks(db)

	// Start DB connection stats collector
	sqlDB, err := db.DB()
	if err == nil {
		metrics.StartDBStatsCollector(sqlDB, 15*time.Second)
	}

	return db, nil
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Racing syncs for the same identity can both attempt the Customer insert;
// the loser's error is benign because both writers derive identical values.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (used by the test suite) reports constraint failures as text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
