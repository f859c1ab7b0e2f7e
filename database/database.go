// Package database provides persistence for the signal-desk curation
// service.
//
// This package includes:
//   - GORM/PostgreSQL connection management
//   - Curation state snapshots (the full entity store as one JSON blob
//     under a fixed storage key)
//   - Publish webhook configuration and delivery logs
//   - A plain database/sql append-only event archive
//
// All persistence here is best-effort: the curation desk keeps its source
// of truth in memory and degrades to memory-only operation when the
// database is unavailable.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the GORM database connection.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
