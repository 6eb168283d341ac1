package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS customer_preferences (
    id BIGSERIAL PRIMARY KEY,
    customer_id BIGINT NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
    preference_key TEXT NOT NULL,
    preference_value TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (customer_id, preference_key)
)`

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// PostgresStore persists preferences in Postgres through bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing bun handle, letting the tool
// gateway and the preference store share one connection pool.
func NewPostgresStoreFromDB(db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the preference table. The customers table it
// references is owned by the tool gateway schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure customer_preferences schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, customerID int64, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: preference key is empty", contractx.ErrValidation)
	}

	var entry Entry
	err := s.db.NewSelect().
		Model(&entry).
		Column("preference_value").
		Where("customer_id = ?", customerID).
		Where("preference_key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: preference %s for customer %d", contractx.ErrNotFound, key, customerID)
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *PostgresStore) Set(ctx context.Context, customerID int64, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: preference key is empty", contractx.ErrValidation)
	}

	now := time.Now().UTC()
	entry := &Entry{
		CustomerID: customerID,
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Single-statement upsert: commit order decides the winner, never a
	// read-then-write pair in application code.
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (customer_id, preference_key) DO UPDATE").
		Set("preference_value = EXCLUDED.preference_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return fmt.Errorf("%w: customer %d", contractx.ErrReferential, customerID)
		}
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) GetAll(ctx context.Context, customerID int64) ([]Entry, error) {
	var entries []Entry
	err := s.db.NewSelect().
		Model(&entries).
		Where("customer_id = ?", customerID).
		Order("preference_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all preferences for customer %d: %w", customerID, err)
	}
	return entries, nil
}

// 23503 is the Postgres foreign_key_violation SQLSTATE.
func isPgForeignKeyViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23503"
	}
	return false
}
