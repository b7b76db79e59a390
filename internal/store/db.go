package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the market-data database connection
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (and creates if needed) the market database
func NewDB(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// migrate creates the schema when it does not exist yet
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS securities (
		ticker TEXT PRIMARY KEY,
		name   TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT 'Unknown'
	);

	CREATE TABLE IF NOT EXISTS prices (
		ticker         TEXT NOT NULL,
		date           TEXT NOT NULL,
		adjusted_close REAL NOT NULL,
		PRIMARY KEY (ticker, date)
	);

	CREATE INDEX IF NOT EXISTS idx_prices_ticker ON prices(ticker);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}
