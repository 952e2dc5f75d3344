package ledger_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	. "github.com/pseudomuto/crossmigrate/pkg/ledger"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type (
	sqlDB struct{ db *sql.DB }

	stubProber struct {
		exists  map[string]bool
		queries int
	}
)

func (s sqlDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *stubProber) Exists(_ context.Context, query string, _ ...any) (bool, error) {
	s.queries++
	for name, ok := range s.exists {
		if ok && strings.Contains(query, "'"+name+"'") {
			return true, nil
		}
	}
	return false, nil
}

func generator(t *testing.T, vendor dialect.Vendor) *dialect.Generator {
	t.Helper()
	gen, err := dialect.New(vendor, "")
	require.NoError(t, err)
	return gen
}

func TestLedger_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("generic without oracle", func(t *testing.T) {
		l := New(generator(t, dialect.Generic), "", "")
		require.Equal(t, "schema_versions", l.Table())
		require.Equal(t, "ux_schema_versions_version", l.IndexName())

		stmts, err := l.Bootstrap(ctx, nil)
		require.NoError(t, err)
		require.Len(t, stmts, 2)
		require.Contains(t, stmts[0], `CREATE TABLE "schema_versions" (`)
		require.Contains(t, stmts[0], `"version" BIGINT NOT NULL`)
		require.Contains(t, stmts[0], `"applied_at" TIMESTAMP NOT NULL`)
		require.Contains(t, stmts[0], `"description" VARCHAR(1024)`)
		require.Equal(t, `CREATE UNIQUE INDEX "ux_schema_versions_version" ON "schema_versions" ("version");`, stmts[1])
	})

	t.Run("existing table", func(t *testing.T) {
		gen := generator(t, dialect.Postgres)
		prober := &stubProber{exists: map[string]bool{"schema_versions": true}}

		stmts, err := New(gen, "", "").Bootstrap(ctx, gen.Oracle(prober))
		require.NoError(t, err)
		require.Empty(t, stmts)
		require.Equal(t, 1, prober.queries)
	})

	t.Run("missing schema", func(t *testing.T) {
		gen := generator(t, dialect.Postgres)

		stmts, err := New(gen, "meta", "versions").Bootstrap(ctx, gen.Oracle(&stubProber{}))
		require.NoError(t, err)
		require.Len(t, stmts, 3)
		require.Contains(t, stmts[0], `"meta"`)
		require.Contains(t, stmts[1], `CREATE TABLE "meta"."versions"`)
		require.Contains(t, stmts[2], `"ux_versions_version"`)
	})

	t.Run("clickhouse skips the unique index", func(t *testing.T) {
		stmts, err := New(generator(t, dialect.ClickHouse), "", "").Bootstrap(ctx, nil)
		require.NoError(t, err)
		require.Len(t, stmts, 1)
		require.Contains(t, stmts[0], "ORDER BY (`version`)")
		require.Contains(t, stmts[0], "`description` Nullable(String)")
	})
}

func TestLedger_Records(t *testing.T) {
	gen := generator(t, dialect.Postgres)
	l := New(gen, "", "")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	sql, err := gen.Generate(l.Applied(20240101000000, "create users", at))
	require.NoError(t, err)
	require.Equal(t, `INSERT INTO "schema_versions" ("version", "applied_at", "description") VALUES (20240101000000, '2024-01-02T03:04:05', 'create users');`, sql)

	sql, err = gen.Generate(l.Reverted(20240101000000))
	require.NoError(t, err)
	require.Equal(t, `DELETE FROM "schema_versions" WHERE "version" = 20240101000000;`, sql)
}

func TestLedger_LongDescription(t *testing.T) {
	gen := generator(t, dialect.Postgres)
	l := New(gen, "", "")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "split rune is dropped",
			description: strings.Repeat("a", 1023) + "éé",
			want:        strings.Repeat("a", 1023) + "é",
		},
		{
			name:        "counts characters",
			description: strings.Repeat("é", 1030),
			want:        strings.Repeat("é", 1024),
		},
		{
			name:        "fits",
			description: strings.Repeat("é", 1024),
			want:        strings.Repeat("é", 1024),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := gen.Generate(l.Applied(1, tt.description, at))
			require.NoError(t, err)
			require.True(t, utf8.ValidString(sql))
			require.True(t, strings.HasSuffix(sql, ", '"+tt.want+"');"))
		})
	}
}

func TestLedger_SQLite(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	gen := generator(t, dialect.SQLite)
	l := New(gen, "", "")

	stmts, err := l.Bootstrap(ctx, nil)
	require.NoError(t, err)
	for _, s := range stmts {
		_, err := db.ExecContext(ctx, s)
		require.NoError(t, err)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, v := range []int64{20240103000000, 20240101000000} {
		s, err := gen.Generate(l.Applied(v, "v", at))
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, s)
		require.NoError(t, err)
	}

	dup, err := gen.Generate(l.Applied(20240101000000, "again", at))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, dup)
	require.Error(t, err, "unique version index")

	set, err := l.Load(ctx, sqlDB{db})
	require.NoError(t, err)
	require.Equal(t, []int64{20240101000000, 20240103000000}, set.Versions())
	require.Equal(t, at, set.Get(20240101000000).AppliedAt)
	require.Equal(t, "v", set.Get(20240101000000).Description)

	s, err := gen.Generate(l.Reverted(20240103000000))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, s)
	require.NoError(t, err)

	set, err = l.Load(ctx, sqlDB{db})
	require.NoError(t, err)
	require.Equal(t, 1, set.Count())
	require.Equal(t, int64(20240101000000), set.Highest())
}

func TestSet(t *testing.T) {
	set := NewSet([]*Entry{{Version: 3}, {Version: 1}, {Version: 2}})
	require.Equal(t, []int64{1, 2, 3}, set.Versions())
	require.True(t, set.IsApplied(2))
	require.False(t, set.IsApplied(4))
	require.Nil(t, set.Get(4))
	require.Equal(t, int64(3), set.Highest())

	require.Equal(t, int64(0), NewSet(nil).Highest())
}
