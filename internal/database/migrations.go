package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes all database migrations
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	// History listing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_query_logs_time
		ON query_logs(query_time DESC, id DESC)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_query_logs_case
		ON query_logs(case_type, case_number, filing_year)
	`).Error; err != nil {
		return err
	}

	// Stored cases listing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_infos_updated
		ON case_infos(updated_at DESC)
	`).Error; err != nil {
		return err
	}

	return nil
}
