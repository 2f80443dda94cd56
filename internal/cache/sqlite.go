package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// SQLiteCache stores fundamentals snapshots in a SQLite database.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	log *zap.Logger
	mu  sync.Mutex

	now func() time.Time
}

// NewSQLiteCache opens (or creates) the database and runs migrations.
// A ttl of zero disables expiry.
func NewSQLiteCache(dbPath string, ttl time.Duration, log *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db, ttl: ttl, log: log, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite cache opened", zap.String("path", dbPath), zap.Duration("ttl", ttl))
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fundamentals (
			symbol     TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			payload    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fundamentals_fetched ON fundamentals(fetched_at)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) GetFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		fetchedAt int64
		payload   string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM fundamentals WHERE symbol = ?`, key(symbol),
	).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fundamentals %s: %w", symbol, err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}

	var f model.Fundamentals
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, false, fmt.Errorf("decode fundamentals %s: %w", symbol, err)
	}
	return &f, true, nil
}

func (c *SQLiteCache) PutFundamentals(ctx context.Context, symbol string, f *model.Fundamentals) error {
	if f == nil {
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fundamentals %s: %w", symbol, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx, `INSERT INTO fundamentals (symbol, fetched_at, payload)
		VALUES (?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`,
		key(symbol), c.now().Unix(), string(payload),
	)
	return err
}

// Prune deletes entries older than the TTL and returns how many were removed.
func (c *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM fundamentals WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune fundamentals: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Close() error {
	c.log.Info("closing sqlite cache")
	return c.db.Close()
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
