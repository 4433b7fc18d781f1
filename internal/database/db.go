// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection with production-grade configuration
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration
type Config struct {
	Path string
}

// New creates a new database connection with WAL mode and a tuned pool.
func New(cfg Config) (*DB, error) {
	// file: URIs (in-memory databases in tests) skip filepath handling
	if !strings.HasPrefix(cfg.Path, "file:") && cfg.Path != ":memory:" {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite performs best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn, path: cfg.Path}, nil
}

func buildConnectionString(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if path == ":memory:" {
		// In-memory databases skip WAL but still need referential integrity
		return ":memory:?_pragma=foreign_keys(ON)"
	}
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=foreign_keys(ON)",
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			base_currency TEXT NOT NULL DEFAULT 'USD',
			total_value TEXT NOT NULL DEFAULT '0',
			total_investment TEXT NOT NULL DEFAULT '0',
			total_gain_loss TEXT NOT NULL DEFAULT '0',
			gain_loss_pct TEXT NOT NULL DEFAULT '0',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			asset_type TEXT NOT NULL,
			quantity TEXT NOT NULL DEFAULT '0',
			purchase_price TEXT NOT NULL DEFAULT '0',
			current_price TEXT NOT NULL DEFAULT '0',
			currency TEXT NOT NULL DEFAULT 'USD',
			invested_amount TEXT NOT NULL DEFAULT '0',
			current_value TEXT NOT NULL DEFAULT '0',
			gain_loss TEXT NOT NULL DEFAULT '0',
			gain_loss_pct TEXT NOT NULL DEFAULT '0',
			is_watchlist INTEGER NOT NULL DEFAULT 0,
			target_price TEXT,
			alert_enabled INTEGER NOT NULL DEFAULT 0,
			alert_fired INTEGER NOT NULL DEFAULT 0,
			price_when_added TEXT NOT NULL DEFAULT '0',
			details TEXT NOT NULL DEFAULT '{}',
			last_price_update INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_portfolio ON positions(portfolio_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_watchlist_symbol
			ON positions(portfolio_id, symbol) WHERE is_watchlist = 1`,
		`CREATE TABLE IF NOT EXISTS benchmarks (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			index_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL DEFAULT 'USD',
			current_value TEXT NOT NULL DEFAULT '0',
			change_amount TEXT NOT NULL DEFAULT '0',
			change_pct TEXT NOT NULL DEFAULT '0',
			last_updated INTEGER NOT NULL,
			added_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_benchmarks_portfolio_symbol
			ON benchmarks(portfolio_id, symbol)`,
		`CREATE TABLE IF NOT EXISTS portfolio_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			record_date TEXT NOT NULL,
			total_value TEXT NOT NULL,
			total_investment TEXT NOT NULL,
			gain_loss TEXT NOT NULL,
			gain_loss_pct TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_portfolio_date
			ON portfolio_history(portfolio_id, record_date)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
