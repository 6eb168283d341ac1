// Package preference persists per-customer key/value context and resolves it
// into summaries handlers and the classifier can consume.
package preference

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Entry is one persisted preference row. At most one row exists per
// (customer_id, preference_key); the value is an opaque string whose
// interpretation belongs to whichever handler owns the key.
type Entry struct {
	bun.BaseModel `bun:"table:customer_preferences"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`
	Key        string    `bun:"preference_key,notnull" json:"preference_key"`
	Value      string    `bun:"preference_value,notnull" json:"preference_value"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull" json:"updated_at"`
}

// Store is the customer context contract.
//
// Set must be a single atomic insert-or-update statement: two concurrent
// writers for the same (customer, key) must never race an existence check
// against the uniqueness constraint. Get of an absent key returns
// contract.ErrNotFound, which callers treat as "no opinion", not a fault.
type Store interface {
	Get(ctx context.Context, customerID int64, key string) (string, error)
	Set(ctx context.Context, customerID int64, key, value string) error
	GetAll(ctx context.Context, customerID int64) ([]Entry, error)
}
