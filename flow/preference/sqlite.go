package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS customer_preferences (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id INTEGER NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
    preference_key TEXT NOT NULL,
    preference_value TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (customer_id, preference_key)
)`

// SQLiteStore persists preferences in a local SQLite database. It backs the
// single-binary mode and mirrors the Postgres store semantics exactly.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := openDB("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure customer_preferences schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, customerID int64, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: preference key is empty", contractx.ErrValidation)
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT preference_value FROM customer_preferences
		 WHERE customer_id = ? AND preference_key = ?`,
		customerID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: preference %s for customer %d", contractx.ErrNotFound, key, customerID)
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, customerID int64, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: preference key is empty", contractx.ErrValidation)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customer_preferences (customer_id, preference_key, preference_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (customer_id, preference_key)
		 DO UPDATE SET preference_value = excluded.preference_value, updated_at = excluded.updated_at`,
		customerID, key, value, now, now,
	)
	if err != nil {
		if isSQLiteForeignKeyViolation(err) {
			return fmt.Errorf("%w: customer %d", contractx.ErrReferential, customerID)
		}
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, customerID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, preference_key, preference_value, created_at, updated_at
		 FROM customer_preferences
		 WHERE customer_id = ?
		 ORDER BY preference_key ASC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("get all preferences for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.CustomerID, &entry.Key, &entry.Value, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan preference row: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entry.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preference rows: %w", err)
	}
	return entries, nil
}

func isSQLiteForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
