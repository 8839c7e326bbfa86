// Package themecache persists extracted theme sets keyed by entry date and
// content hash, so relink and trace runs skip re-tokenizing unchanged
// entries. Purely an optimization: a miss just recomputes.
package themecache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/blake3"

	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/vault"
)

const schema = `
CREATE TABLE IF NOT EXISTS theme_sets (
	date         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	themes       TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (date, content_hash)
);
`

// Cache is a SQLite-backed theme set cache
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database in the given directory
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "themes.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open theme cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping theme cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init theme cache schema: %w", err)
	}
	return &Cache{db: db, path: dbPath}, nil
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

func hashContent(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached theme set for an entry's current content
func (c *Cache) Get(date time.Time, content string) ([]string, bool) {
	var raw string
	err := c.db.QueryRow(
		`SELECT themes FROM theme_sets WHERE date = ? AND content_hash = ?`,
		date.Format(vault.DateFormat), hashContent(content),
	).Scan(&raw)
	if err != nil {
		return nil, false
	}
	var set []string
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, false
	}
	return set, true
}

// Put stores the theme set for an entry's current content, dropping any
// rows for stale versions of the same date.
func (c *Cache) Put(date time.Time, content string, set []string) {
	key := date.Format(vault.DateFormat)
	hash := hashContent(content)
	raw, err := json.Marshal(set)
	if err != nil {
		return
	}
	if _, err := c.db.Exec(`DELETE FROM theme_sets WHERE date = ? AND content_hash <> ?`, key, hash); err != nil {
		logging.Debug("themecache", "stale row cleanup failed for %s: %v", key, err)
	}
	if _, err := c.db.Exec(
		`INSERT OR REPLACE INTO theme_sets (date, content_hash, themes, updated_at) VALUES (?, ?, ?, ?)`,
		key, hash, string(raw), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		logging.Debug("themecache", "put failed for %s: %v", key, err)
	}
}
