package change_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() *change.CreateTable {
	return &change.CreateTable{
		Table: "Users",
		Columns: []change.Column{
			change.NewColumn("Id", change.Int32()).PrimaryKey().Identity(),
			change.NewColumn("Name", change.String(50)).NotNull(),
		},
	}
}

func TestUsersScenario(t *testing.T) {
	users := usersTable()
	require.Empty(t, users.Validate())
	require.Equal(t, []string{"Id"}, users.PrimaryKey())

	rev := users.Reverse()
	require.Equal(t, &change.DeleteTable{Table: "Users"}, rev)
	require.Empty(t, rev.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  change.Change
		invalid []string
	}{
		{
			name:   "valid create table",
			change: usersTable(),
		},
		{
			name:    "create table without name or columns",
			change:  &change.CreateTable{},
			invalid: []string{"table", "columns"},
		},
		{
			name: "create table with duplicate columns",
			change: &change.CreateTable{Table: "t", Columns: []change.Column{
				change.NewColumn("a", change.Int32()),
				change.NewColumn("a", change.Int32()),
			}},
			invalid: []string{"columns[1].name"},
		},
		{
			name: "identity on a string column",
			change: &change.CreateTable{Table: "t", Columns: []change.Column{
				change.NewColumn("a", change.String(10)).Identity(),
			}},
			invalid: []string{"columns[0].identity"},
		},
		{
			name: "null default on not null column",
			change: &change.CreateColumn{Table: "t",
				Column: change.NewColumn("a", change.Int32()).Default(change.Null)},
			invalid: []string{"column.default"},
		},
		{
			name: "null default on nullable column",
			change: &change.CreateColumn{Table: "t",
				Column: change.NewColumn("a", change.Int32()).Nullable().Default(change.Null)},
		},
		{
			name: "decimal scale above precision",
			change: &change.AlterColumn{Table: "t",
				Column: change.NewColumn("a", change.Decimal(4, 6))},
			invalid: []string{"column.type.scale"},
		},
		{
			name:    "missing column type",
			change:  &change.CreateColumn{Table: "t", Column: change.Column{Name: "a"}},
			invalid: []string{"column.type"},
		},
		{
			name:   "custom column type",
			change: &change.CreateColumn{Table: "t", Column: change.NewColumn("a", change.Custom("jsonb"))},
		},
		{
			name:    "rename to same name",
			change:  &change.RenameTable{Table: "t", NewName: "t"},
			invalid: []string{"new_name"},
		},
		{
			name:    "index without columns",
			change:  &change.CreateIndex{Table: "t", Index: change.Index{Name: "ix"}},
			invalid: []string{"index.columns"},
		},
		{
			name: "index with mistyped feature",
			change: &change.CreateIndex{Table: "t", Index: change.Index{
				Name:     "ix",
				Columns:  []change.IndexColumn{{Name: "a"}},
				Features: change.Features{}.With(change.FillFactor, "80"),
			}},
			invalid: []string{"index.features.fill_factor"},
		},
		{
			name: "index with unknown feature",
			change: &change.CreateIndex{Table: "t", Index: change.Index{
				Name:     "ix",
				Columns:  []change.IndexColumn{{Name: "a"}},
				Features: change.Features{}.With("bogus", 1),
			}},
			invalid: []string{"index.features.bogus"},
		},
		{
			name: "foreign key column count mismatch",
			change: &change.CreateForeignKey{ForeignKey: change.ForeignKey{
				Name: "fk", Table: "a", Columns: []string{"x", "y"},
				ForeignTable: "b", ForeignColumns: []string{"id"},
			}},
			invalid: []string{"foreign_key.foreign_columns"},
		},
		{
			name:    "check constraint without expression",
			change:  &change.CreateConstraint{Table: "t", Constraint: change.Constraint{Name: "ck", Type: change.CheckConstraint}},
			invalid: []string{"constraint.check"},
		},
		{
			name:    "insert without rows",
			change:  &change.InsertRows{Table: "t"},
			invalid: []string{"rows"},
		},
		{
			name:    "insert with empty row",
			change:  &change.InsertRows{Table: "t", Rows: []change.Row{{}}},
			invalid: []string{"rows[0]"},
		},
		{
			name:    "update without predicate",
			change:  &change.UpdateRows{Table: "t", Set: change.Row{{Column: "a", Value: 1}}},
			invalid: []string{"where"},
		},
		{
			name:   "update all rows",
			change: &change.UpdateRows{Table: "t", Set: change.Row{{Column: "a", Value: 1}}, AllRows: true},
		},
		{
			name:    "delete without predicate",
			change:  &change.DeleteRows{Table: "t"},
			invalid: []string{"where"},
		},
		{
			name:    "empty sql",
			change:  &change.ExecuteSQL{SQL: "  "},
			invalid: []string{"sql"},
		},
		{
			name:    "sequence bounds",
			change:  &change.CreateSequence{Name: "s", MinValue: utils.Ptr(int64(10)), MaxValue: utils.Ptr(int64(1))},
			invalid: []string{"min_value"},
		},
		{
			name:    "sequence start outside bounds",
			change:  &change.CreateSequence{Name: "s", StartWith: utils.Ptr(int64(0)), MinValue: utils.Ptr(int64(1))},
			invalid: []string{"start_with"},
		},
		{
			name:    "perform without func",
			change:  &change.Perform{Description: "noop"},
			invalid: []string{"fn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := tt.change.Validate()

			fields := make([]string, len(violations))
			for i, v := range violations {
				fields[i] = v.Field
			}

			if len(tt.invalid) == 0 {
				require.Empty(t, violations)
				require.NoError(t, change.Validate(tt.change))
				return
			}

			require.Equal(t, tt.invalid, fields)

			var verr *change.ValidationError
			require.True(t, errors.As(change.Validate(tt.change), &verr))
			require.Equal(t, tt.change.Kind(), verr.Kind)
		})
	}
}

func TestUpsertValidation(t *testing.T) {
	row := func(id int, name string) change.Row {
		return change.Row{{Column: "id", Value: id}, {Column: "name", Value: name}}
	}

	tests := []struct {
		name   string
		upsert *change.UpsertRows
		valid  bool
	}{
		{
			name:   "no match columns",
			upsert: &change.UpsertRows{Table: "t", Rows: []change.Row{row(1, "a")}},
		},
		{
			name:   "match columns present in every row",
			upsert: &change.UpsertRows{Table: "t", Rows: []change.Row{row(1, "a"), row(2, "b")}, MatchColumns: []string{"id"}},
			valid:  true,
		},
		{
			name: "row missing a match column",
			upsert: &change.UpsertRows{Table: "t", MatchColumns: []string{"id"}, Rows: []change.Row{
				row(1, "a"),
				{{Column: "name", Value: "b"}},
			}},
		},
		{
			name: "update overlaps match",
			upsert: &change.UpsertRows{Table: "t", Rows: []change.Row{row(1, "a")},
				MatchColumns: []string{"id"}, UpdateColumns: []string{"id"}},
		},
		{
			name: "update column missing from a row",
			upsert: &change.UpsertRows{Table: "t", Rows: []change.Row{row(1, "a")},
				MatchColumns: []string{"id"}, UpdateColumns: []string{"email"}},
		},
		{
			name:   "no rows",
			upsert: &change.UpsertRows{Table: "t", MatchColumns: []string{"id"}},
		},
		{
			name: "insert only",
			upsert: &change.UpsertRows{Table: "t", Rows: []change.Row{row(1, "a")},
				MatchColumns: []string{"id"}, InsertOnly: true},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				require.Empty(t, tt.upsert.Validate())
			} else {
				require.NotEmpty(t, tt.upsert.Validate())
			}
		})
	}
}

func TestUpsertConflictColumns(t *testing.T) {
	row := change.Row{{Column: "id", Value: 1}, {Column: "name", Value: "a"}, {Column: "email", Value: "x"}}

	u := &change.UpsertRows{Table: "t", MatchColumns: []string{"id"}}
	require.Equal(t, []string{"name", "email"}, u.ConflictColumns(row))

	u.UpdateColumns = []string{"email"}
	require.Equal(t, []string{"email"}, u.ConflictColumns(row))

	u = &change.UpsertRows{Table: "t", MatchColumns: []string{"id"}, InsertOnly: true}
	require.Empty(t, u.ConflictColumns(row))
}

func TestReverse(t *testing.T) {
	fk := change.ForeignKey{
		Name: "fk_orders_users", Table: "orders", Columns: []string{"user_id"},
		ForeignTable: "users", ForeignColumns: []string{"id"},
	}
	check := change.Constraint{Name: "ck_age", Type: change.CheckConstraint, Check: "age > 0"}
	rows := []change.Row{
		{{Column: "id", Value: 1}, {Column: "name", Value: "a"}},
		{{Column: "id", Value: 2}, {Column: "name", Value: "b"}},
	}

	tests := []struct {
		name     string
		change   change.Change
		expected change.Change
	}{
		{
			name:     "create table",
			change:   &change.CreateTable{Schema: "app", Table: "t", Columns: []change.Column{change.NewColumn("a", change.Int32())}},
			expected: &change.DeleteTable{Schema: "app", Table: "t"},
		},
		{
			name:     "rename table",
			change:   &change.RenameTable{Table: "a", NewName: "b"},
			expected: &change.RenameTable{Table: "b", NewName: "a"},
		},
		{
			name:     "create column",
			change:   &change.CreateColumn{Table: "t", Column: change.NewColumn("a", change.Int32())},
			expected: &change.DeleteColumn{Table: "t", Column: "a"},
		},
		{
			name:     "rename column",
			change:   &change.RenameColumn{Table: "t", Column: "a", NewName: "b"},
			expected: &change.RenameColumn{Table: "t", Column: "b", NewName: "a"},
		},
		{
			name:     "create index",
			change:   &change.CreateIndex{Table: "t", Index: change.Index{Name: "ix", Columns: []change.IndexColumn{{Name: "a"}}}},
			expected: &change.DeleteIndex{Table: "t", Name: "ix"},
		},
		{
			name:     "create foreign key",
			change:   &change.CreateForeignKey{ForeignKey: fk},
			expected: &change.DeleteForeignKey{Table: "orders", Name: "fk_orders_users", Definition: &fk},
		},
		{
			name:     "delete foreign key with definition",
			change:   &change.DeleteForeignKey{Table: "orders", Name: "fk_orders_users", Definition: &fk},
			expected: &change.CreateForeignKey{ForeignKey: fk},
		},
		{
			name:     "create constraint",
			change:   &change.CreateConstraint{Table: "t", Constraint: check},
			expected: &change.DeleteConstraint{Table: "t", Name: "ck_age", Definition: &check},
		},
		{
			name:     "delete constraint with definition",
			change:   &change.DeleteConstraint{Table: "t", Name: "ck_age", Definition: &check},
			expected: &change.CreateConstraint{Table: "t", Constraint: check},
		},
		{
			name:     "create schema",
			change:   &change.CreateSchema{Name: "app"},
			expected: &change.DeleteSchema{Name: "app"},
		},
		{
			name:     "create sequence",
			change:   &change.CreateSequence{Schema: "app", Name: "seq"},
			expected: &change.DeleteSequence{Schema: "app", Name: "seq"},
		},
		{
			name:     "insert rows",
			change:   &change.InsertRows{Table: "t", Rows: rows},
			expected: &change.DeleteRows{Table: "t", Where: rows},
		},
		{
			name:   "upsert deletes on match columns only",
			change: &change.UpsertRows{Table: "t", Rows: rows, MatchColumns: []string{"id"}},
			expected: &change.DeleteRows{Table: "t", Where: []change.Row{
				{{Column: "id", Value: 1}},
				{{Column: "id", Value: 2}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.change.Reverse())
		})
	}
}

func TestReverse_Irreversible(t *testing.T) {
	irreversible := []change.Change{
		&change.DeleteTable{Table: "t"},
		&change.DeleteColumn{Table: "t", Column: "a"},
		&change.AlterColumn{Table: "t", Column: change.NewColumn("a", change.Int64())},
		&change.DeleteIndex{Table: "t", Name: "ix"},
		&change.DeleteForeignKey{Table: "t", Name: "fk"},
		&change.DeleteConstraint{Table: "t", Name: "ck"},
		&change.UpdateRows{Table: "t", Set: change.Row{{Column: "a", Value: 1}}, AllRows: true},
		&change.DeleteRows{Table: "t", AllRows: true},
		&change.ExecuteSQL{SQL: "SELECT 1"},
		&change.DeleteSchema{Name: "app"},
		&change.DeleteSequence{Name: "seq"},
		&change.Perform{Fn: func(context.Context, change.Executor) error { return nil }},
	}

	for _, c := range irreversible {
		t.Run(string(c.Kind()), func(t *testing.T) {
			assert.Nil(t, c.Reverse())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := change.Validate(&change.CreateTable{})
	require.EqualError(t, err, "invalid CreateTable: table: is required; columns: at least one column is required")
	require.Error(t, change.Validate(nil))

	var missing *change.CreateTable
	require.ErrorContains(t, change.Validate(missing), "change is nil")
	require.True(t, change.IsNil(missing))
	require.False(t, change.IsNil(&change.CreateTable{}))
}

func TestFeatures(t *testing.T) {
	base := change.Features{}
	f := base.With(change.FillFactor, 80).With(change.Include, []string{"a", "b"})

	require.Zero(t, base.Len())
	require.Equal(t, 2, f.Len())
	require.Equal(t, []change.Feature{change.FillFactor, change.Include}, f.Names())

	n, ok := f.Int(change.FillFactor)
	require.True(t, ok)
	require.Equal(t, 80, n)

	cols, ok := f.Strings(change.Include)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, cols)

	_, ok = f.Bool(change.Clustered)
	require.False(t, ok)
	require.False(t, f.Has(change.Clustered))
}

func TestColumnBuilder(t *testing.T) {
	col := change.NewColumn("Id", change.Int64()).Nullable().NamedPrimaryKey("pk_users").Identity().Unique()

	require.Equal(t, change.Column{
		Name:           "Id",
		Type:           change.DataType{DbType: change.TypeInt64},
		IsPrimaryKey:   true,
		PrimaryKeyName: "pk_users",
		IsIdentity:     true,
		IsUnique:       true,
	}, col)

	require.Equal(t, "string(50)", change.String(50).String())
	require.Equal(t, "decimal(10,2)", change.Decimal(10, 2).String())
	require.Equal(t, "jsonb", change.Custom("jsonb").String())
}
