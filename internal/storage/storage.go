// Package storage provides persistent storage for swap records using
// SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides persistent storage for the relay/swap client.
type Storage struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Config holds storage configuration.
type Config struct {
	DataDir string
}

// New creates a new Storage instance.
func New(cfg *Config) (*Storage, error) {
	dataDir := expandPath(cfg.DataDir)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "btcrelay-swap.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Storage{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// initSchema creates all database tables.
func (s *Storage) initSchema() error {
	schema := `
	-- Settings/config table
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER
	);

	-- =========================================================================
	-- Swap records (persisted commitment.Record plus off-chain wrapper
	-- fields, keyed by payment_hash). Enables recovery of the swap
	-- engine's state after a restart.
	-- =========================================================================
	CREATE TABLE IF NOT EXISTS swap_records (
		payment_hash TEXT PRIMARY KEY,

		-- commitment.Record (on-chain tuple)
		record_type      TEXT NOT NULL DEFAULT 'evm',
		offerer          TEXT NOT NULL,
		claimer          TEXT NOT NULL,
		token            TEXT NOT NULL,
		amount           TEXT NOT NULL,
		data             TEXT NOT NULL,
		security_deposit TEXT NOT NULL,
		claimer_bounty   TEXT NOT NULL,
		txo_hash         TEXT,

		-- off-chain wrapper fields
		url         TEXT,
		swap_fee    TEXT,
		prefix      TEXT,
		timeout     INTEGER,
		signature   TEXT,
		fee_rate    TEXT,
		commit_tx_id TEXT,
		claim_tx_id  TEXT,
		expiry      INTEGER NOT NULL,

		-- engine state machine (spec §4.G)
		state TEXT NOT NULL DEFAULT 'PR_CREATED',

		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_swap_records_state ON swap_records(state);
	CREATE INDEX IF NOT EXISTS idx_swap_records_expiry ON swap_records(expiry);
	`

	_, err := s.db.Exec(schema)
	return err
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
