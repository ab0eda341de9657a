package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

// cachedRow is the msgpack payload of one feature row
type cachedRow struct {
	File     string    `msgpack:"file"`
	Vector   []float64 `msgpack:"vector"`
	Computed time.Time `msgpack:"computed"`
}

// RowCache persists finished feature rows so an interrupted build resumes
// where it stopped. Rows are keyed by parameter key and file identity.
type RowCache struct {
	db *sql.DB
}

// OpenRowCache opens or creates the cache database at path
func OpenRowCache(path string) (*RowCache, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	cache := &RowCache{db: db}
	if err := cache.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return cache, nil
}

func (c *RowCache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS feature_rows (
			key        TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	return err
}

// Close ensures the DB connection is closed gracefully
func (c *RowCache) Close() error {
	return c.db.Close()
}

// RowKey identifies one file under one parameter key. Size and modification
// time stand in for content so edited files are recomputed.
func RowKey(paramKey, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	sum := sha256.New()
	fmt.Fprintf(sum, "%s\x00%s\x00%d\x00%d", paramKey, info.Name(), info.Size(), info.ModTime().UnixNano())
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// Get returns the stored vector for key, or ok=false on a miss
func (c *RowCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx, "SELECT payload FROM feature_rows WHERE key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cached row: %w", err)
	}

	var row cachedRow
	if err := msgpack.Unmarshal(payload, &row); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached row: %w", err)
	}
	return row.Vector, true, nil
}

// Put stores vector under key, replacing any previous entry
func (c *RowCache) Put(ctx context.Context, key, file string, vector []float64) error {
	now := time.Now().UTC()
	payload, err := msgpack.Marshal(cachedRow{File: file, Vector: vector, Computed: now})
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO feature_rows (key, payload, updated_at) VALUES (?, ?, ?)",
		key, payload, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to store row: %w", err)
	}
	return nil
}

// Len returns the number of cached rows
func (c *RowCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feature_rows").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
