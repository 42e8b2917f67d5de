package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(dbPath string) (*gorm.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SearchAttempt{}); err != nil {
		return err
	}
	return createIndexes(db)
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Index for case searches
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_history_case
		ON search_history(case_type, case_number, filing_year)
	`).Error; err != nil {
		return err
	}

	// Index for history listing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_history_time
		ON search_history(query_time)
	`).Error; err != nil {
		return err
	}

	return nil
}
