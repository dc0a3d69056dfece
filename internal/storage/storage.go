// Package storage provides SQLite-backed persistence for users, markets,
// price history, and comments.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/marketboard/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "marketboard", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id               TEXT PRIMARY KEY,
			wallet_address   TEXT NOT NULL UNIQUE,
			username         TEXT,
			avatar_url       TEXT,
			bio              TEXT,
			total_volume     REAL NOT NULL DEFAULT 0,
			total_profit     REAL NOT NULL DEFAULT 0,
			win_rate         REAL NOT NULL DEFAULT 0,
			reputation_score REAL NOT NULL DEFAULT 0,
			total_trades     INTEGER NOT NULL DEFAULT 0,
			is_admin         INTEGER NOT NULL DEFAULT 0,
			created_at       INTEGER NOT NULL,
			updated_at       INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			slug        TEXT NOT NULL UNIQUE,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			id                TEXT PRIMARY KEY,
			slug              TEXT NOT NULL UNIQUE,
			question          TEXT NOT NULL,
			description       TEXT,
			category_id       TEXT REFERENCES categories(id),
			creator_id        TEXT REFERENCES users(id),
			yes_price         REAL NOT NULL,
			no_price          REAL NOT NULL,
			volume            REAL NOT NULL DEFAULT 0,
			liquidity         REAL NOT NULL DEFAULT 0,
			participants      INTEGER NOT NULL DEFAULT 0,
			trades_count      INTEGER NOT NULL DEFAULT 0,
			resolution_status TEXT NOT NULL DEFAULT 'open',
			end_date          INTEGER,
			created_at        INTEGER NOT NULL,
			updated_at        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id         TEXT PRIMARY KEY,
			market_id  TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			yes_price  REAL NOT NULL,
			no_price   REAL NOT NULL,
			volume_24h REAL NOT NULL DEFAULT 0,
			timestamp  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			market_id  TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			parent_id  TEXT,
			content    TEXT NOT NULL,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comment_likes (
			comment_id TEXT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL,
			PRIMARY KEY (comment_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_markets_category ON markets(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_market_ts ON price_history(market_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_market ON comments(market_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_profit ON users(total_profit DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
