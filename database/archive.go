package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// EventArchive persists pipeline/operator event lines over a plain
// database/sql connection. The in-memory event log is bounded to the
// most recent 50 entries; the archive keeps the full history for
// after-the-fact diagnostics.
type EventArchive struct {
	conn *sql.DB
}

// ArchiveConfig holds event archive connection settings
type ArchiveConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewEventArchive opens the archive connection and ensures the table exists
func NewEventArchive(cfg ArchiveConfig) (*EventArchive, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// Modest pool: the archive only sees low-rate appends
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	a := &EventArchive{conn: conn}
	if err := a.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

func (a *EventArchive) initSchema() error {
	_, err := a.conn.Exec(`
		CREATE TABLE IF NOT EXISTS event_archive (
			id BIGSERIAL PRIMARY KEY,
			event_id VARCHAR(36) NOT NULL,
			message TEXT NOT NULL,
			logged_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create event_archive table: %w", err)
	}

	_, err = a.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_archive_logged_at
		ON event_archive (logged_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to index event_archive: %w", err)
	}
	return nil
}

// ArchiveEvent appends one event line. Append-only: rows are never
// updated or deleted by the application.
func (a *EventArchive) ArchiveEvent(eventID, message string, loggedAt time.Time) error {
	_, err := a.conn.Exec(
		`INSERT INTO event_archive (event_id, message, logged_at) VALUES ($1, $2, $3)`,
		eventID, message, loggedAt,
	)
	return WrapDBError("ArchiveEvent", err)
}

// Close closes the archive connection
func (a *EventArchive) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
