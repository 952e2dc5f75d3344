package migration_test

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	. "github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/stretchr/testify/require"
)

const usersYAML = `
description: index user names
up:
  - create_index:
      table: users
      name: ix_users_name
      columns: [name desc]
`

func migrationsFS() fstest.MapFS {
	return fstest.MapFS{
		"20240101000000_create_users.up.sql":   {Data: []byte("CREATE TABLE users (id INT);")},
		"20240101000000_create_users.down.sql": {Data: []byte("DROP TABLE users;")},
		"20240102000000_backfill.up.sql":       {Data: []byte("-- migrate:no-transaction\n-- migrate:breaking\nUPDATE users SET x = 1;")},
		"20240103000000_name_index.yaml":       {Data: []byte(usersYAML)},
		"README.md":                            {Data: []byte("not a migration")},
		"nested/20240104000000_skip.up.sql":    {Data: []byte("SELECT 1;")},
	}
}

func TestLoadDir(t *testing.T) {
	ms, err := LoadDir(migrationsFS())
	require.NoError(t, err)
	require.Len(t, ms, 3)

	gen, err := dialect.New(dialect.Postgres, "")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("sql pair", func(t *testing.T) {
		m := ms[0]
		require.Equal(t, int64(20240101000000), m.Version)
		require.Equal(t, "create users", m.Description)
		require.Equal(t, Automatic, m.Transaction)
		require.False(t, m.Breaking)
		require.Equal(t, "20240101000000_create_users.up.sql", m.Source)

		up, err := Collect(ctx, m.Up, gen, nil)
		require.NoError(t, err)
		require.Equal(t, []change.Change{&change.ExecuteSQL{SQL: "CREATE TABLE users (id INT);"}}, up)

		down, err := Collect(ctx, m.Down, gen, nil)
		require.NoError(t, err)
		require.Equal(t, []change.Change{&change.ExecuteSQL{SQL: "DROP TABLE users;"}}, down)
	})

	t.Run("directives", func(t *testing.T) {
		m := ms[1]
		require.Equal(t, None, m.Transaction)
		require.True(t, m.Breaking)
		require.Nil(t, m.Down)
	})

	t.Run("yaml", func(t *testing.T) {
		m := ms[2]
		require.Equal(t, "index user names", m.Description)
		require.Nil(t, m.Down)

		up, err := Collect(ctx, m.Up, gen, nil)
		require.NoError(t, err)
		require.Equal(t, []change.Change{
			&change.CreateIndex{
				Table: "users",
				Index: change.Index{
					Name:    "ix_users_name",
					Columns: []change.IndexColumn{{Name: "name", Direction: change.Descending}},
				},
			},
		}, up)
	})
}

func TestLoadDir_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name: "orphan down",
			fsys: fstest.MapFS{
				"20240101000000_orphan.down.sql": {Data: []byte("DROP TABLE users;")},
			},
			wantErr: "down migration 20240101000000 has no matching .up.sql file",
		},
		{
			name: "down paired with yaml",
			fsys: fstest.MapFS{
				"20240101000000_users.yaml":     {Data: []byte("up: []")},
				"20240101000000_users.down.sql": {Data: []byte("DROP TABLE users;")},
			},
			wantErr: "has no matching .up.sql file",
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"20240101000000_a.up.sql": {Data: []byte("SELECT 1;")},
				"20240101000000_b.yml":    {Data: []byte("up: []")},
			},
			wantErr: "duplicate migration version 20240101000000",
		},
		{
			name: "invalid yaml",
			fsys: fstest.MapFS{
				"20240101000000_a.yaml": {Data: []byte("up:\n  - frobnicate: {}\n")},
			},
			wantErr: `line 2: unknown change "frobnicate"`,
		},
		{
			name: "invalid transaction mode",
			fsys: fstest.MapFS{
				"20240101000000_a.yaml": {Data: []byte("transaction: sometimes\nup: []\n")},
			},
			wantErr: `unknown transaction mode "sometimes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDir(tt.fsys)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadDir_SumFile(t *testing.T) {
	fsys := migrationsFS()

	sum, err := ComputeSum(fsys)
	require.NoError(t, err)
	require.Equal(t, 4, sum.Files())

	var buf bytes.Buffer
	_, err = sum.WriteTo(&buf)
	require.NoError(t, err)
	fsys[consts.DefaultSumFile] = &fstest.MapFile{Data: buf.Bytes()}

	_, err = LoadDir(fsys)
	require.NoError(t, err)

	fsys["20240102000000_backfill.up.sql"] = &fstest.MapFile{Data: []byte("UPDATE users SET x = 2;")}
	_, err = LoadDir(fsys)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.ErrorContains(t, err, "20240102000000_backfill.up.sql")

	delete(fsys, "20240102000000_backfill.up.sql")
	_, err = LoadDir(fsys)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSumFile(t *testing.T) {
	sum := NewSumFile()
	require.Empty(t, sum.Total())

	sum.AddFile("a.up.sql", []byte("SELECT 1;"))
	sum.AddFile("b.up.sql", []byte("SELECT 2;"))

	var buf bytes.Buffer
	_, err := sum.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := LoadSumFile(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, sum.Total(), loaded.Total())

	_, ok := sum.Diff(loaded)
	require.True(t, ok)

	reordered := NewSumFile()
	reordered.AddFile("a.up.sql", []byte("SELECT 1;"))
	reordered.AddFile("b.up.sql", []byte("SELECT 3;"))
	name, ok := sum.Diff(reordered)
	require.False(t, ok)
	require.Equal(t, "b.up.sql", name)

	tampered := bytes.Replace(buf.Bytes(), []byte("h1:"), []byte("h1:AAAA"), 1)
	_, err = LoadSumFile(bytes.NewReader(tampered))
	require.Error(t, err)
}
