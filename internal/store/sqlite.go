package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using an embedded SQLite database at
// dataDir/history.db.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes (SQLite is single-writer)
}

// NewSQLiteStore opens or creates the history database and runs schema
// migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			device TEXT NOT NULL,
			operation TEXT NOT NULL,
			path TEXT NOT NULL,
			response_code TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			request_bytes INTEGER NOT NULL,
			response_bytes INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_device ON exchanges(device, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

// RecordExchange inserts rec, assigning an ID and timestamp when unset.
func (s *SQLiteStore) RecordExchange(ctx context.Context, rec ExchangeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, device, operation, path, response_code, error, request_bytes, response_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Device, rec.Operation, rec.Path, rec.ResponseCode, rec.Error,
		rec.RequestBytes, rec.ResponseBytes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// ListExchanges returns the most recent exchanges, newest first. An empty
// device matches all devices; limit <= 0 means no limit.
func (s *SQLiteStore) ListExchanges(ctx context.Context, device string, limit int) ([]ExchangeRecord, error) {
	query := `SELECT id, device, operation, path, response_code, error, request_bytes, response_bytes, created_at
		FROM exchanges`
	var args []any
	if device != "" {
		query += ` WHERE device = ?`
		args = append(args, device)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer rows.Close()

	var out []ExchangeRecord
	for rows.Next() {
		var rec ExchangeRecord
		if err := rows.Scan(&rec.ID, &rec.Device, &rec.Operation, &rec.Path,
			&rec.ResponseCode, &rec.Error, &rec.RequestBytes, &rec.ResponseBytes, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes exchanges older than keepDays days.
func (s *SQLiteStore) Prune(ctx context.Context, keepDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("pruning exchanges: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
