// Package database persists clients, sessions and availability templates
// in SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection and owns schema creation.
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if needed) the database at path and applies the
// schema. Transactions start as BEGIN IMMEDIATE so that check-then-write
// sequences take the write lock up front.
func NewDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// PingContext checks the connection, for readiness probes.
func (d *DB) PingContext(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

func (d *DB) createTables() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			session_value REAL NOT NULL DEFAULT 0,
			billing_day INTEGER,
			notes TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL REFERENCES clients(id),
			scheduled_at TIMESTAMP NOT NULL,
			duration_minutes INTEGER NOT NULL,
			actual_duration_minutes INTEGER,
			value REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'scheduled',
			periodicity TEXT NOT NULL DEFAULT 'none',
			notes TEXT NOT NULL DEFAULT '',
			clinical_notes TEXT NOT NULL DEFAULT '',
			cancel_reason TEXT NOT NULL DEFAULT '',
			billable INTEGER NOT NULL DEFAULT 1,
			paid INTEGER NOT NULL DEFAULT 0,
			paid_at TIMESTAMP,
			payment_method TEXT NOT NULL DEFAULT '',
			completed_at TIMESTAMP,
			original_session_id INTEGER REFERENCES sessions(id),
			google_calendar_event_id TEXT NOT NULL DEFAULT '',
			reminder_sent_at TIMESTAMP,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS working_hours (
			weekday INTEGER PRIMARY KEY,
			working INTEGER NOT NULL DEFAULT 0,
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			lunch_start TEXT NOT NULL DEFAULT '',
			lunch_end TEXT NOT NULL DEFAULT '',
			session_duration_minutes INTEGER NOT NULL DEFAULT 50,
			gap_minutes INTEGER NOT NULL DEFAULT 10
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_scheduled_at ON sessions(scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_client ON sessions(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
	}
	for _, m := range migrations {
		if _, err := d.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise.
func (d *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
