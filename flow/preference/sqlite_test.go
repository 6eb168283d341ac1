package preference

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "concierge.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	_, err = store.db.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("create customers table: %v", err)
	}
	for _, name := range []string{"Noah Chen", "Mia Park"} {
		if _, err := store.db.Exec(`INSERT INTO customers (name) VALUES (?)`, name); err != nil {
			t.Fatalf("seed customer %s: %v", name, err)
		}
	}
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 1, KeyLastOrderID, "29"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, 1, KeyLastOrderID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "29" {
		t.Fatalf("Get() = %q, want %q", got, "29")
	}
}

func TestSQLiteStoreUpsertKeepsSingleRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 1, KeyUsualPartySize, "2"); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := store.Set(ctx, 1, KeyUsualPartySize, "4"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	got, err := store.Get(ctx, 1, KeyUsualPartySize)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "4" {
		t.Fatalf("Get() = %q, want last written value %q", got, "4")
	}

	var count int
	err = store.db.QueryRow(
		`SELECT COUNT(*) FROM customer_preferences WHERE customer_id = ? AND preference_key = ?`,
		1, KeyUsualPartySize,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want exactly 1 (upsert, not duplicate insert)", count)
	}
}

func TestSQLiteStoreUpsertRefreshesUpdatedAt(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 1, KeyRecentItems, "Caesar Salad"); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := store.Set(ctx, 1, KeyRecentItems, "Caesar Salad, Burger"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	entries, err := store.GetAll(ctx, 1)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].UpdatedAt.Before(entries[0].CreatedAt) {
		t.Fatalf("updated_at %v is before created_at %v", entries[0].UpdatedAt, entries[0].CreatedAt)
	}
}

func TestSQLiteStoreGetAbsentKeyIsNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.Get(context.Background(), 1, KeyLastReservationID)
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreSetEmptyKeyRejected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.Set(context.Background(), 1, "  ", "value")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Set() error = %v, want ErrValidation", err)
	}
}

func TestSQLiteStoreSetUnknownCustomerIsReferential(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.Set(context.Background(), 999, KeyLastOrderID, "1")
	if !errors.Is(err, contractx.ErrReferential) {
		t.Fatalf("Set() error = %v, want ErrReferential", err)
	}
}

func TestSQLiteStoreMissingSchemaIsNotReferential(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.db.Exec(`DROP TABLE customer_preferences`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	err := store.Set(context.Background(), 1, KeyLastOrderID, "29")
	if err == nil {
		t.Fatal("Set() against a missing table should fail")
	}
	if errors.Is(err, contractx.ErrReferential) {
		t.Fatalf("missing schema misread as a bad customer id: %v", err)
	}
}

func TestSQLiteStoreGetAllSetEquality(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	want := map[string]string{
		KeyLastOrderID:         "29",
		KeyRecentItems:         "Caesar Salad, Burger",
		KeyUsualPartySize:      "4",
		KeyDietaryRestrictions: "vegetarian",
	}
	for k, v := range want {
		if err := store.Set(ctx, 1, k, v); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}
	// Another customer's entries must not leak in.
	if err := store.Set(ctx, 2, KeyLastOrderID, "7"); err != nil {
		t.Fatalf("Set() for customer 2 error = %v", err)
	}

	entries, err := store.GetAll(ctx, 1)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	got := AsMap(entries)
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("entry %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestSQLiteStoreCascadeDeleteRemovesPreferences(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 2, KeyAllergies, "peanuts"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := store.db.Exec(`DELETE FROM customers WHERE id = ?`, 2); err != nil {
		t.Fatalf("delete customer: %v", err)
	}

	entries, err := store.GetAll(ctx, 2)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d after cascade delete, want 0", len(entries))
	}
}
