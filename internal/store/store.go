// Package store persists budget items and settings in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/cadence/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const (
	keyFrequency = "display_frequency"
	keySeeded    = "seeded"
)

// Store provides SQLite-backed budget persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the budget database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening budget db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadItems returns every stored item in saved order.
func (s *Store) LoadItems() ([]model.LineItem, error) {
	rows, err := s.db.Query(`SELECT id, name, amount, category, frequency, type
		FROM items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.LineItem
	for rows.Next() {
		var it model.LineItem
		var freq, typ string
		if err := rows.Scan(&it.ID, &it.Name, &it.Amount, &it.Category, &freq, &typ); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.Frequency = model.Frequency(freq)
		it.Type = model.ItemType(typ)
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveItems replaces the stored collection with items, keeping their order.
func (s *Store) SaveItems(items []model.LineItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO items
		(id, position, name, amount, category, frequency, type, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UTC().Format(time.RFC3339)
	for i, it := range items {
		_, err := stmt.Exec(it.ID, i, it.Name, it.Amount, it.Category, string(it.Frequency), string(it.Type), now)
		if err != nil {
			return fmt.Errorf("saving item %q: %w", it.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}

// ItemCount returns the number of stored items.
func (s *Store) ItemCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// LoadFrequency returns the saved display frequency. ok is false when none
// has been saved yet.
func (s *Store) LoadFrequency() (f model.Frequency, ok bool, err error) {
	v, ok, err := s.setting(keyFrequency)
	return model.Frequency(v), ok, err
}

// SaveFrequency stores the display frequency.
func (s *Store) SaveFrequency(f model.Frequency) error {
	return s.setSetting(keyFrequency, string(f))
}

// Seeded reports whether the default budget has been written before, so an
// emptied budget is not reseeded on the next start.
func (s *Store) Seeded() (bool, error) {
	_, ok, err := s.setting(keySeeded)
	return ok, err
}

// MarkSeeded records that the default budget was written.
func (s *Store) MarkSeeded() error {
	return s.setSetting(keySeeded, s.now().UTC().Format(time.RFC3339))
}

func (s *Store) setting(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// ExportRecord is one completed export.
type ExportRecord struct {
	Path      string
	ItemCount int
	CreatedAt time.Time
}

// RecordExport logs a completed export.
func (s *Store) RecordExport(path string, itemCount int) error {
	_, err := s.db.Exec(`INSERT INTO exports (path, item_count, created_at) VALUES (?, ?, ?)`,
		path, itemCount, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// RecentExports returns up to limit exports, newest first.
func (s *Store) RecentExports(limit int) ([]ExportRecord, error) {
	rows, err := s.db.Query(`SELECT path, item_count, created_at FROM exports
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var created string
		if err := rows.Scan(&rec.Path, &rec.ItemCount, &created); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}
