// Package sqlite keeps the board snapshot in a local SQLite file. It is the
// default slot: durable, single-device and dependency-free at runtime.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"

	_ "modernc.org/sqlite"
)

type Slot struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and ensures the
// slots table exists. Parent directories are created as required.
func New(ctx context.Context, path string) (*Slot, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open: %w", err)
	}
	// A single connection serializes writers and keeps the WAL pragma on
	// the connection that uses it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite.New: %s: %w", pragma, err)
		}
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS slots (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create schema: %w", err)
	}

	log.Info().Str("path", path).Msg("sqlite slot ready")
	return &Slot{db: db}, nil
}

func (s *Slot) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite.Slot.Close: %w", err)
	}
	return nil
}

func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite.Slot.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.Slot.Load: %w", err)
	}
	return data, nil
}

func (s *Slot) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite.Slot.Save: %w", err)
	}
	return nil
}
