package dialect_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	. "github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	exists  bool
	queries []string
}

func (s *stubProber) Exists(_ context.Context, query string, _ ...any) (bool, error) {
	s.queries = append(s.queries, query)
	return s.exists, nil
}

func TestSQLServer_DefaultConstraints(t *testing.T) {
	base, err := New(SQLServer, "")
	require.NoError(t, err)

	drop := &change.DeleteColumn{Schema: "sales", Table: "orders", Column: "status"}

	t.Run("without oracle", func(t *testing.T) {
		sql, err := base.Generate(drop)
		require.NoError(t, err)
		require.Contains(t, sql, "OBJECT_ID(N'[sales].[orders]')")
		require.Contains(t, sql, "EXEC(N'ALTER TABLE [sales].[orders] DROP CONSTRAINT ' + QUOTENAME(@default));")
		require.True(t, strings.HasSuffix(sql, "ALTER TABLE [sales].[orders] DROP COLUMN [status];"))
	})

	t.Run("oracle without default", func(t *testing.T) {
		prober := &stubProber{}
		gen := base.WithOracle(base.Oracle(prober))

		sql, err := gen.Generate(drop)
		require.NoError(t, err)
		require.Equal(t, "ALTER TABLE [sales].[orders] DROP COLUMN [status];", sql)
		require.Len(t, prober.queries, 1)
		require.Contains(t, prober.queries[0], "sys.default_constraints")
	})

	t.Run("oracle with default", func(t *testing.T) {
		gen := base.WithOracle(base.Oracle(&stubProber{exists: true}))

		sql, err := gen.Generate(&change.AlterColumn{
			Schema: "sales",
			Table:  "orders",
			Column: change.NewColumn("status", change.String(20)).Default("new"),
		})
		require.NoError(t, err)

		lines := strings.Split(sql, "\n")
		require.Len(t, lines, 5)
		require.Equal(t, "DECLARE @default sysname;", lines[0])
		require.Equal(t, "ALTER TABLE [sales].[orders] ALTER COLUMN [status] NVARCHAR(20) NOT NULL;", lines[3])
		require.Equal(t, "ALTER TABLE [sales].[orders] ADD DEFAULT N'new' FOR [status];", lines[4])
	})

	t.Run("rename table uses default schema", func(t *testing.T) {
		sql, err := base.Generate(&change.RenameTable{Table: "orders", NewName: "purchases"})
		require.NoError(t, err)
		require.Equal(t, "EXEC sp_rename N'[dbo].[orders]', N'purchases';", sql)
	})
}

func TestRegistry_Layering(t *testing.T) {
	reg := NewRegistry(Base())
	reg.Register(Override{
		Vendor: "acme",
		Productions: map[change.Kind]Production{
			change.KindDeleteTable: func(ctx *Context, c change.Change) (string, error) {
				sql, err := ctx.Next(c)
				return "-- acme\n" + sql, err
			},
		},
	})
	reg.Register(Override{
		Vendor:  "acme",
		Version: "2",
		Productions: map[change.Kind]Production{
			change.KindDeleteTable: func(ctx *Context, c change.Change) (string, error) {
				sql, err := ctx.Next(c)
				return "-- acme 2\n" + sql, err
			},
		},
	})

	drop := &change.DeleteTable{Table: "t"}

	tests := []struct {
		version Version
		want    string
	}{
		{version: Version{1}, want: "-- acme\nDROP TABLE \"t\";"},
		{version: Version{2, 1}, want: "-- acme 2\n-- acme\nDROP TABLE \"t\";"},
		{version: nil, want: "-- acme 2\n-- acme\nDROP TABLE \"t\";"},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			gen, err := reg.Generator(Dialect{Vendor: "acme", Version: tt.version})
			require.NoError(t, err)

			sql, err := gen.Generate(drop)
			require.NoError(t, err)
			require.Equal(t, tt.want, sql)
		})
	}

	require.Equal(t, []Vendor{"acme"}, reg.Vendors())
}

func TestVersion_Compare(t *testing.T) {
	v := func(s string) Version {
		parsed, err := ParseVersion(s)
		require.NoError(t, err)
		return parsed
	}

	require.Equal(t, 0, v("9.5").Compare(v("9.5.0")))
	require.Equal(t, -1, v("9.5").Compare(v("10")))
	require.Equal(t, 1, v("3.35").Compare(v("3.8")))
	require.Nil(t, v(""))
}
