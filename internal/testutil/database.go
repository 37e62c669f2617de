// Package testutil sets up throwaway ledger databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB is a migrated, file-backed ledger database that is removed when
// the test ends.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Categories map[string]*model.Category
	t          *testing.T
}

// SetupTestDB creates a fresh database in the test's temp directory and
// seeds one category per name.
//
// Example:
//
//	db := testutil.SetupTestDB(t, "Groceries", "Rent")
//	food := db.Category("Groceries")
func SetupTestDB(t *testing.T, categories ...string) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:    store,
		Categories: make(map[string]*model.Category, len(categories)),
		t:          t,
	}
	for _, name := range categories {
		category := &model.Category{Name: name}
		if err := store.CreateCategory(ctx, category); err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		db.Categories[name] = category
	}

	return db
}

// Category returns a seeded category, failing the test if it was not seeded.
func (db *TestDB) Category(name string) *model.Category {
	db.t.Helper()
	category, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q was not seeded", name)
	}
	return category
}
