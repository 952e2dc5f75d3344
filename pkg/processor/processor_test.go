package processor_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/pseudomuto/crossmigrate/pkg/processor"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	_, err := Open(Options{Driver: "oracle", DSN: "x"})
	require.ErrorContains(t, err, `unknown driver "oracle"`)

	_, err = Open(Options{Driver: "postgres"})
	require.ErrorContains(t, err, "driver postgres requires a dsn")

	// connections are lazy, so an unreachable server is not an error yet
	db, err := Open(Options{Driver: "postgres", DSN: "postgres://nowhere.invalid/db"})
	require.NoError(t, err)
	require.True(t, db.SupportsTransactions())
	require.NoError(t, db.Close())

	ch, err := Open(Options{Driver: "clickhouse", DSN: "clickhouse://localhost:9000/default"})
	require.NoError(t, err)
	require.False(t, ch.SupportsTransactions())
	require.ErrorContains(t, ch.Begin(context.Background()), "does not support transactions")

	require.Equal(t, []string{"clickhouse", "mysql", "postgres", "sqlite", "sqlite3", "sqlserver"}, Drivers())
}

func TestDB_Transactions(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, db.Exec(ctx, "CREATE TABLE t (id INTEGER)"))

	require.NoError(t, db.Begin(ctx))
	require.ErrorContains(t, db.Begin(ctx), "transaction already open")
	require.NoError(t, db.Exec(ctx, "INSERT INTO t (id) VALUES (?)", 1))

	found, err := db.Exists(ctx, "SELECT 1 FROM t WHERE id = ?", 1)
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, db.Rollback())

	found, err = db.Exists(ctx, "SELECT 1 FROM t WHERE id = ?", 1)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Begin(ctx))
	require.NoError(t, db.Exec(ctx, "INSERT INTO t (id) VALUES (2)"))
	require.NoError(t, db.Commit())
	require.ErrorContains(t, db.Commit(), "no open transaction")

	rows, err := db.Query(ctx, "SELECT id FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []int{2}, ids)
}

func TestDB_ServerVersion(t *testing.T) {
	version, err := openSQLite(t).ServerVersion(context.Background())
	require.NoError(t, err)
	require.Regexp(t, `^3\.\d+\.\d+$`, version)
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		driver string
		raw    string
		want   string
	}{
		{driver: "clickhouse", raw: "21.10.3.9 (official build)", want: "21.10.3"},
		{driver: "clickhouse", raw: "22.8.2.11-testing", want: "22.8.2"},
		{driver: "postgres", raw: "14.5 (Debian 14.5-1.pgdg110+1)", want: "14.5"},
		{driver: "mysql", raw: "8.0.32-0ubuntu0.22.04.2", want: "8.0.32"},
		{driver: "sqlserver", raw: "16.0.1000.6", want: "2022"},
		{driver: "sqlserver", raw: "9.0.5000.00", want: "9.0.5000"},
		{driver: "sqlite", raw: "3.45.1", want: "3.45.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeVersion(tt.driver, tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeVersion("postgres", "unknown")
	require.ErrorContains(t, err, "invalid version format")
}

func TestTLSSettings_Config(t *testing.T) {
	valid := TLSSettings{
		CertFile: filepath.Join("testdata", "client.crt"),
		KeyFile:  filepath.Join("testdata", "client.key"),
		CAFile:   filepath.Join("testdata", "ca.crt"),
	}

	cfg, err := valid.Config()
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	require.NotNil(t, cfg.RootCAs)

	tests := []struct {
		name   string
		mutate func(*TLSSettings)
	}{
		{name: "invalid cert file", mutate: func(s *TLSSettings) { s.CertFile = "bogus.crt" }},
		{name: "invalid key file", mutate: func(s *TLSSettings) { s.KeyFile = "bogus.key" }},
		{name: "invalid CA file", mutate: func(s *TLSSettings) { s.CAFile = "bogus.crt" }},
		{name: "CA file without certificates", mutate: func(s *TLSSettings) { s.CAFile = s.KeyFile }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			cfg, err := s.Config()
			require.Error(t, err)
			require.Nil(t, cfg)
		})
	}
}
