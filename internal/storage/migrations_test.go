package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Sequential(t *testing.T) {
	for i, migration := range migrations {
		assert.Equal(t, i+1, migration.Version, "migration %q out of sequence", migration.Description)
		assert.NotEmpty(t, migration.Description)
		assert.NotNil(t, migration.Up)
	}
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestMigrate_FromVersionOne(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "old.db")

	// Build a database that stopped at the first migration.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, migrations[0].Up(tx))
	_, err = tx.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = db.Exec(`INSERT INTO accounts (id, name, kind, created_at)
		VALUES ('00000000-0000-0000-0000-000000000001', 'Legacy', 'bank', '2024-01-01 00:00:00+00:00')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	accounts, err := store.ListAccounts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Legacy", accounts[0].Name)

	var columns int
	err = store.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('transactions') WHERE name = 'external_id'`).Scan(&columns)
	require.NoError(t, err)
	assert.Equal(t, 1, columns)
}

func TestMigrate_NewerDatabase(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	err = store.Migrate(ctx)
	assert.ErrorContains(t, err, "schema version mismatch")
}

func TestSchemaVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}
