package cmd

import (
	"path/filepath"
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/cmd/testutil"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := testutil.Run(t, initCmd(), "--path", dir, "--provider", "postgres", "--dsn", "${DATABASE_URL}")
	require.NoError(t, err)
	require.Contains(t, out, "Initialized project in "+dir)
	require.DirExists(t, filepath.Join(dir, consts.DefaultMigrationsDir))

	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	cfg, err := config.LoadConfigFile(filepath.Join(dir, consts.DefaultConfigFile))
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Provider)
	require.Equal(t, "postgres", cfg.Target.Driver)
	require.Equal(t, "postgres://localhost/app", cfg.Target.DSN)
	require.Equal(t, consts.DefaultLedgerTable, cfg.Ledger.Table)

	t.Run("idempotent", func(t *testing.T) {
		out, err := testutil.Run(t, initCmd(), "--path", dir, "--provider", "mysql")
		require.NoError(t, err)
		require.Contains(t, out, "already exists")

		cfg, err := config.LoadConfigFile(filepath.Join(dir, consts.DefaultConfigFile))
		require.NoError(t, err)
		require.Equal(t, "postgres", cfg.Provider)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := testutil.Run(t, initCmd(), "--path", t.TempDir(), "--provider", "oracle")
		require.ErrorContains(t, err, `unknown provider "oracle"`)
	})
}
