// Package storage persists cached device state and per-entry settings in SQLite so they survive restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/state"
)

// Store is a SQLite backed repository.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (and creates if needed) the database at path and applies migrations. Use ":memory:" for an in-memory
// database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	// SQLite allows a single writer, and every connection of ":memory:" would be its own database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &Store{db: db, log: log.ForComponent("storage").With(slog.String("path", path))}
	if err = s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.log.Debug("Opened database")
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS entry_settings (
			entry_id TEXT PRIMARY KEY,
			scan_interval_ms INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS capability_state (
			entry_id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			type TEXT NOT NULL,
			instance TEXT NOT NULL,
			value_json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (entry_id, device_id, type, instance)
		);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: migrate: %w", err)
		}
	}

	return nil
}

// SaveScanInterval stores the poll interval of an entry.
func (s *Store) SaveScanInterval(ctx context.Context, entryID string, interval time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entry_settings (entry_id, scan_interval_ms, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET scan_interval_ms = excluded.scan_interval_ms, updated_at = excluded.updated_at;`,
		entryID, interval.Milliseconds(), now(),
	)
	if err != nil {
		return fmt.Errorf("storage: save scan interval: %w", err)
	}

	return nil
}

// ScanInterval returns the stored poll interval of an entry. The second return value is false when none was stored.
func (s *Store) ScanInterval(ctx context.Context, entryID string) (time.Duration, bool, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT scan_interval_ms FROM entry_settings WHERE entry_id = ?;`, entryID).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage: load scan interval: %w", err)
	}

	return time.Duration(ms) * time.Millisecond, true, nil
}

// SaveState replaces the persisted state of an entry with a snapshot of its cache.
func (s *Store) SaveState(ctx context.Context, entryID string, entries []state.Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: save state: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM capability_state WHERE entry_id = ?;`, entryID); err != nil {
		return fmt.Errorf("storage: save state: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO capability_state (entry_id, device_id, type, instance, value_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("storage: save state: %w", err)
	}
	defer stmt.Close()

	updatedAt := now()
	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, entryID, e.Device, string(e.Type), e.Instance, string(e.Value), updatedAt); err != nil {
			return fmt.Errorf("storage: save state %s: %w", e.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: save state: %w", err)
	}

	return nil
}

// LoadState returns the persisted state of an entry.
func (s *Store) LoadState(ctx context.Context, entryID string) ([]state.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, type, instance, value_json FROM capability_state
		WHERE entry_id = ? ORDER BY device_id, type, instance;`, entryID)
	if err != nil {
		return nil, fmt.Errorf("storage: load state: %w", err)
	}
	defer rows.Close()

	var result []state.Entry
	for rows.Next() {
		var (
			e         state.Entry
			t, rawVal string
		)
		if err = rows.Scan(&e.Device, &t, &e.Instance, &rawVal); err != nil {
			return nil, fmt.Errorf("storage: load state: %w", err)
		}

		e.Type = govee.CapabilityType(t)
		e.Value = jsontext.Value(rawVal)
		result = append(result, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load state: %w", err)
	}

	return result, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
