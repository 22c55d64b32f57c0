package database

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

// dsn adds the pragmas every connection needs. Writers wait for a busy lock
// instead of failing immediately.
func dsn(dbPath string) string {
	if dbPath == memoryPath {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_foreign_keys=on"
}

// Initialize opens the sqlite database at dbPath (":memory:" for a private
// in-process database) and brings the schema up to date.
func Initialize(dbPath string) (*gorm.DB, error) {
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}

	// One connection: sqlite has a single writer, and an in-memory database
	// lives only on the connection that created it.
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	pool.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate creates or updates tables for the stored records and query log,
// then applies the indexes AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&QueryLog{}, &CaseInfo{}, &Party{}, &Order{}); err != nil {
		return err
	}
	return RunMigrations(db)
}

// Closer adapts the underlying connection pool for shutdown.
func Closer(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}
