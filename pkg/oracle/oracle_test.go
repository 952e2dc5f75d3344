package oracle_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	queries []string
	result  bool
	err     error
}

func (f *fakeProber) Exists(_ context.Context, query string, _ ...any) (bool, error) {
	f.queries = append(f.queries, query)
	return f.result, f.err
}

func TestOracle_Queries(t *testing.T) {
	tests := []struct {
		name     string
		quoter   *quote.Quoter
		queries  oracle.Queries
		call     func(context.Context, *oracle.Oracle) (bool, error)
		expected string
	}{
		{
			name:    "postgres table in current schema",
			quoter:  quote.Postgres(),
			queries: oracle.Postgres(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.TableExists(ctx, "", "users")
			},
			expected: "SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'users'",
		},
		{
			name:    "postgres index",
			quoter:  quote.Postgres(),
			queries: oracle.Postgres(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.IndexExists(ctx, "app", "users", "ix_users_email")
			},
			expected: "SELECT 1 FROM pg_catalog.pg_indexes WHERE schemaname = 'app' AND tablename = 'users' AND indexname = 'ix_users_email'",
		},
		{
			name:    "names are quoted literals",
			quoter:  quote.MySQL(),
			queries: oracle.MySQL(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.ColumnExists(ctx, "shop", "o'reilly", `a\b`)
			},
			expected: `SELECT 1 FROM information_schema.columns WHERE table_schema = 'shop' AND table_name = 'o''reilly' AND column_name = 'a\\b'`,
		},
		{
			name:    "sqlserver default constraint",
			quoter:  quote.SQLServer(),
			queries: oracle.SQLServer(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.DefaultValueExists(ctx, "dbo", "users", "active")
			},
			expected: "SELECT 1 FROM sys.default_constraints dc JOIN sys.columns c ON c.object_id = dc.parent_object_id " +
				"AND c.column_id = dc.parent_column_id WHERE dc.parent_object_id = OBJECT_ID(QUOTENAME(N'dbo') + '.' + " +
				"QUOTENAME(N'users')) AND c.name = N'active'",
		},
		{
			name:    "sqlite column",
			quoter:  quote.SQLite(),
			queries: oracle.SQLite(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.ColumnExists(ctx, "", "users", "email")
			},
			expected: "SELECT 1 FROM pragma_table_info('users') WHERE name = 'email'",
		},
		{
			name:    "clickhouse schema",
			quoter:  quote.ClickHouse(),
			queries: oracle.ClickHouse(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.SchemaExists(ctx, "analytics")
			},
			expected: "SELECT 1 FROM system.databases WHERE name = 'analytics'",
		},
		{
			name:    "ansi sequence",
			quoter:  quote.ANSI(),
			queries: oracle.ANSI(),
			call: func(ctx context.Context, o *oracle.Oracle) (bool, error) {
				return o.SequenceExists(ctx, "app", "seq_orders")
			},
			expected: "SELECT 1 FROM information_schema.sequences WHERE sequence_schema = 'app' AND sequence_name = 'seq_orders'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &fakeProber{result: true}
			o := oracle.New(prober, tt.quoter, tt.queries)

			ok, err := tt.call(context.Background(), o)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []string{tt.expected}, prober.queries)
		})
	}
}

func TestOracle_NeverCaches(t *testing.T) {
	prober := &fakeProber{}
	o := oracle.New(prober, quote.Postgres(), oracle.Postgres())

	for range 3 {
		ok, err := o.TableExists(context.Background(), "", "users")
		require.NoError(t, err)
		require.False(t, ok)
	}

	require.Len(t, prober.queries, 3)
}

func TestOracle_Unsupported(t *testing.T) {
	prober := &fakeProber{}
	o := oracle.New(prober, quote.MySQL(), oracle.MySQL())

	_, err := o.SequenceExists(context.Background(), "", "seq")
	require.True(t, errors.Is(err, oracle.ErrUnsupported))
	require.Empty(t, prober.queries)

	o = oracle.New(prober, quote.SQLite(), oracle.SQLite())
	_, err = o.ConstraintExists(context.Background(), "", "users", "ck")
	require.True(t, errors.Is(err, oracle.ErrUnsupported))
}

func TestOracle_ProberError(t *testing.T) {
	prober := &fakeProber{err: errors.New("connection reset")}
	o := oracle.New(prober, quote.Postgres(), oracle.Postgres())

	_, err := o.ColumnExists(context.Background(), "app", "users", "email")
	require.EqualError(t, err, "ColumnExists(app.users.email): connection reset")
}
