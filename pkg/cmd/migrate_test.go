package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/cmd/testutil"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommands(t *testing.T) {
	fixture := testutil.TestProject(t).WithMigrations(testutil.UsersMigrations())
	cfg := fixture.Config

	t.Run("preview", func(t *testing.T) {
		out, err := testutil.Run(t, up(cfg), "--preview")
		require.NoError(t, err)
		require.Contains(t, out, `CREATE TABLE "schema_versions" (`)
		require.Contains(t, out, `CREATE TABLE "users" (`)
		require.Contains(t, out, "CREATE INDEX ix_users_name ON users (name);")
		require.NotContains(t, out, "✅")
	})

	t.Run("up to target", func(t *testing.T) {
		out, err := testutil.Run(t, up(cfg), "--target", "20240102000000")
		require.NoError(t, err)
		require.Contains(t, out, "✅ 20240101000000 create users")
		require.Contains(t, out, "✅ 20240102000000 seed users")
		require.NotContains(t, out, "20240103000000")
	})

	t.Run("status", func(t *testing.T) {
		out, err := testutil.Run(t, status(cfg))
		require.NoError(t, err)
		require.Contains(t, out, "⏳ 20240103000000 name index (pending)")
		require.Contains(t, out, "3 migrations: 2 applied, 1 pending, 0 missing")
	})

	t.Run("up", func(t *testing.T) {
		out, err := testutil.Run(t, up(cfg))
		require.NoError(t, err)
		require.Contains(t, out, "✅ 20240103000000 name index")

		out, err = testutil.Run(t, up(cfg))
		require.NoError(t, err)
		require.Contains(t, out, "Nothing to migrate")
	})

	t.Run("rollback", func(t *testing.T) {
		out, err := testutil.Run(t, rollback(cfg), "--steps", "2")
		require.NoError(t, err)
		require.Contains(t, out, "⏪ 20240103000000 name index")
		require.Contains(t, out, "⏪ 20240102000000 seed users")

		out, err = testutil.Run(t, status(cfg))
		require.NoError(t, err)
		require.Contains(t, out, "3 migrations: 1 applied, 2 pending, 0 missing")
	})

	t.Run("down", func(t *testing.T) {
		_, err := testutil.Run(t, down(cfg))
		require.ErrorContains(t, err, `"to"`)

		out, err := testutil.Run(t, down(cfg), "--to", "0")
		require.NoError(t, err)
		require.Contains(t, out, "⏪ 20240101000000 create users")
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := testutil.Run(t, up(cfg))
		require.NoError(t, err)

		require.NoError(t, os.Remove(filepath.Join(fixture.MigrationsDir(), "20240103000000_name_index.up.sql")))
		require.NoError(t, os.Remove(filepath.Join(fixture.MigrationsDir(), "20240103000000_name_index.down.sql")))

		out, err := testutil.Run(t, status(cfg))
		require.NoError(t, err)
		require.Contains(t, out, "❓ 20240103000000 name index")
		require.Contains(t, out, "3 migrations: 2 applied, 0 pending, 1 missing")
	})
}

func TestMigrateCommands_Failure(t *testing.T) {
	fixture := testutil.TestProject(t).WithMigrations([]testutil.MigrationFile{
		{Name: "20240101000000_broken.up.sql", Content: "CREATE TABLE a (id INTEGER);\nINSERT INTO missing VALUES (1);\n"},
	})

	out, err := testutil.Run(t, up(fixture.Config))
	require.ErrorContains(t, err, "migration 20240101000000 failed")
	require.Contains(t, out, "↩️  20240101000000 broken")
}

func TestMigrateCommands_RequireConfig(t *testing.T) {
	_, err := testutil.Run(t, up(nil))
	require.EqualError(t, err, "crossmigrate.yaml not found (run crossmigrate init)")
}

func TestMigrateCommands_DSNOverride(t *testing.T) {
	fixture := testutil.TestProject(t).
		WithMigrations(testutil.UsersMigrations()[:1]).
		WithConfig(func(c *config.Config) { c.Target.DSN = "" })

	_, err := testutil.Run(t, up(fixture.Config))
	require.ErrorContains(t, err, "driver sqlite requires a dsn")

	other := filepath.Join(fixture.Dir, "other.db")
	_, err = testutil.Run(t, up(fixture.Config), "--dsn", other)
	require.NoError(t, err)
	require.FileExists(t, other)
}
