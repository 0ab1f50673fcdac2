package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/log"

	_ "modernc.org/sqlite"
)

const (
	getQuery = `SELECT value FROM kv WHERE key = ?`
	setQuery = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLiteRepository is a kvstore.Store backed by a single SQLite table.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements kvstore.Reader
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements kvstore.Writer
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(ctx, setQuery, key, value, now); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Key saved to SQLite", log.FieldKey, key, "bytes", len(value))
	return nil
}

// Ping checks the database connection. Used by the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
