package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pseudomuto/crossmigrate/pkg/cmd/testutil"
	"github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/stretchr/testify/require"
)

func freezeTime(t *testing.T, at time.Time) {
	t.Helper()

	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestNewCommand(t *testing.T) {
	freezeTime(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC))
	fixture := testutil.TestProject(t)
	dir := fixture.MigrationsDir()

	t.Run("sql", func(t *testing.T) {
		out, err := testutil.Run(t, newCmd(fixture.Config), "Create", "Users!")
		require.NoError(t, err)
		require.Contains(t, out, "20240304050607_create_users.down.sql")
		require.Contains(t, out, "20240304050607_create_users.up.sql")
		require.FileExists(t, filepath.Join(dir, "20240304050607_create_users.up.sql"))
		require.FileExists(t, filepath.Join(dir, "20240304050607_create_users.down.sql"))
	})

	t.Run("exists", func(t *testing.T) {
		_, err := testutil.Run(t, newCmd(fixture.Config), "create users")
		require.ErrorContains(t, err, "migration already exists")
	})

	t.Run("yaml refreshes sum file", func(t *testing.T) {
		_, err := writeSum(dir)
		require.NoError(t, err)
		freezeTime(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

		_, err = testutil.Run(t, newCmd(fixture.Config), "--yaml", "add: email index")
		require.NoError(t, err)
		require.FileExists(t, filepath.Join(dir, "20240305000000_add_email_index.yaml"))

		ms, err := migration.LoadDir(os.DirFS(dir))
		require.NoError(t, err)
		require.Len(t, ms, 2)
		require.Equal(t, "add: email index", ms[1].Description)
	})

	t.Run("description required", func(t *testing.T) {
		_, err := testutil.Run(t, newCmd(fixture.Config), "!!!")
		require.EqualError(t, err, "a migration description is required")
	})
}
