// Package store persists operator rollout flags in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"themegate/internal/logging"
)

// DefaultActor is recorded in history when the caller does not name one.
const DefaultActor = "themegate"

// ErrNotFound is returned by Get for unset keys.
var ErrNotFound = errors.New("flag not set")

// FlagStore is a key/value flag table with an append-only change history.
// It satisfies rollout.FlagSource and rollout.FlagWriter.
type FlagStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	now    func() time.Time
}

// Change is one row of flag history. Value is empty and Deleted is true for
// unsets; OldValue is empty when the key was previously unset.
type Change struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	OldValue  string    `json:"old_value"`
	Value     string    `json:"value"`
	Deleted   bool      `json:"deleted"`
	Actor     string    `json:"actor"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewFlagStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway store.
func NewFlagStore(path string) (*FlagStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewFlagStore")
	defer timer.Stop()

	log := logging.Get(logging.CategoryStore)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
		}
	}

	s := &FlagStore{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("flag store ready", zap.String("path", path))
	return s, nil
}

func (s *FlagStore) initialize() error {
	flagsTable := `
	CREATE TABLE IF NOT EXISTS flags (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	historyTable := `
	CREATE TABLE IF NOT EXISTS flag_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		actor TEXT NOT NULL DEFAULT '',
		changed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_flag_history_key ON flag_history(key);
	`

	for _, table := range []string{flagsTable, historyTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database path.
func (s *FlagStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *FlagStore) Close() error {
	return s.db.Close()
}

// Get returns the value for key or ErrNotFound.
func (s *FlagStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM flags WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flag %s: %w", key, err)
	}
	return value, nil
}

// Set writes key=value and records the change. Writing the current value
// again is a no-op.
func (s *FlagStore) Set(ctx context.Context, key, value, actor string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("flag key is empty")
	}
	if actor == "" {
		actor = DefaultActor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, existed, err := currentValue(ctx, tx, key)
	if err != nil {
		return err
	}
	if existed && old == value {
		return nil
	}

	now := s.now().UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO flags (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now); err != nil {
		return fmt.Errorf("failed to write flag %s: %w", key, err)
	}
	if err := recordChange(ctx, tx, key, nullable(old, existed), sql.NullString{String: value, Valid: true}, actor, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flag %s: %w", key, err)
	}

	logging.Get(logging.CategoryStore).Info("flag set",
		zap.String("key", key), zap.String("value", value), zap.String("actor", actor))
	return nil
}

// Delete unsets key. Deleting an unset key is a no-op.
func (s *FlagStore) Delete(ctx context.Context, key, actor string) error {
	if actor == "" {
		actor = DefaultActor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, existed, err := currentValue(ctx, tx, key)
	if err != nil || !existed {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM flags WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete flag %s: %w", key, err)
	}
	if err := recordChange(ctx, tx, key, nullable(old, true), sql.NullString{}, actor, s.now().UnixMilli()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flag %s: %w", key, err)
	}

	logging.Get(logging.CategoryStore).Info("flag unset", zap.String("key", key), zap.String("actor", actor))
	return nil
}

// LoadFlags returns every flag. It implements rollout.FlagSource.
func (s *FlagStore) LoadFlags(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM flags")
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetFlag implements rollout.FlagWriter.
func (s *FlagStore) SetFlag(ctx context.Context, key, value string) error {
	return s.Set(ctx, key, value, DefaultActor)
}

// History returns the newest changes first. An empty key returns changes
// for every key; limit <= 0 means no limit.
func (s *FlagStore) History(ctx context.Context, key string, limit int) ([]Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, key, old_value, new_value, actor, changed_at FROM flag_history"
	var args []any
	if key != "" {
		query += " WHERE key = ?"
		args = append(args, key)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flag history: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var oldValue, newValue sql.NullString
		var changedAt int64
		if err := rows.Scan(&c.ID, &c.Key, &oldValue, &newValue, &c.Actor, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag history: %w", err)
		}
		c.OldValue = oldValue.String
		c.Value = newValue.String
		c.Deleted = !newValue.Valid
		c.ChangedAt = time.UnixMilli(changedAt).UTC()
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func currentValue(ctx context.Context, tx *sql.Tx, key string) (string, bool, error) {
	var value string
	err := tx.QueryRowContext(ctx, "SELECT value FROM flags WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read flag %s: %w", key, err)
	}
	return value, true, nil
}

func recordChange(ctx context.Context, tx *sql.Tx, key string, oldValue, newValue sql.NullString, actor string, at int64) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO flag_history (key, old_value, new_value, actor, changed_at) VALUES (?, ?, ?, ?, ?)",
		key, oldValue, newValue, actor, at); err != nil {
		return fmt.Errorf("failed to record flag history: %w", err)
	}
	return nil
}

func nullable(v string, valid bool) sql.NullString {
	return sql.NullString{String: v, Valid: valid}
}
