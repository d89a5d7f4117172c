package sql_test

import (
	"context"
	stdsql "database/sql"
	"path/filepath"
	"testing"

	sqlstore "github.com/aretw0/tessera/pkg/adapters/sql"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open("sqlite", filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStore_Contract(t *testing.T) {
	ports.RunSchemaStoreContract(t, openSQLite(t))
}

func TestSQLStore_VersionBumpsPerSave(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	_, err := store.Version(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "home", domain.NewSchema(domain.Node{ID: "a", Type: "Header"})))
	}
	version, err := store.Version(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestSQLStore_ReopenKeepsPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	ctx := context.Background()

	store, err := sqlstore.Open("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "tenant/home", domain.NewSchema(domain.Node{ID: "hero", Type: "Hero"})))
	require.NoError(t, store.Close())

	store, err = sqlstore.Open("sqlite", path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, "tenant/home")
	require.NoError(t, err)
	assert.Equal(t, "hero", loaded.Components[0].ID)
}

func TestSQLStore_NewFromDB(t *testing.T) {
	db, err := stdsql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := sqlstore.NewFromDB(context.Background(), db, sqlstore.SQLite)
	require.NoError(t, err)
	require.NoError(t, store.Close(), "borrowed pools are left open")
	require.NoError(t, db.Ping())
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3", "postgres", "postgresql", "mysql"} {
		_, err := sqlstore.DialectFor(name)
		assert.NoError(t, err, name)
	}
	_, err := sqlstore.DialectFor("oracle")
	assert.ErrorContains(t, err, "unsupported")
}
