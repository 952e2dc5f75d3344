package migration_test

import (
	"context"
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	. "github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/stretchr/testify/require"
)

const accountsYAML = `
description: accounts
breaking: true
transaction: none
up:
  - create_schema: billing
  - create_table:
      schema: billing
      name: accounts
      columns:
        - id int32 primary key identity
        - name string(50) default 'unnamed'
        - opened_at datetime default utc_now()
  - create_index:
      schema: billing
      table: accounts
      name: ix_accounts_name
      unique: true
      columns: [name, opened_at desc]
      features:
        fill_factor: 80
        include: [id]
  - add_foreign_key:
      table: invoices
      name: fk_invoices_accounts
      columns: [account_id]
      references:
        schema: billing
        table: accounts
        columns: [id]
      on_delete: set_null
  - upsert:
      schema: billing
      table: accounts
      match: [id]
      rows:
        - {id: 1, name: House}
  - sql: UPDATE invoices SET account_id = 1
down:
  - delete_table:
      schema: billing
      name: accounts
`

func TestLoadYAML(t *testing.T) {
	m, err := LoadYAML(20240101000000, "fallback", []byte(accountsYAML))
	require.NoError(t, err)
	require.Equal(t, "accounts", m.Description)
	require.Equal(t, None, m.Transaction)
	require.True(t, m.Breaking)

	gen, err := dialect.New(dialect.Generic, "")
	require.NoError(t, err)

	up, err := Collect(context.Background(), m.Up, gen, nil)
	require.NoError(t, err)
	require.Equal(t, []change.Change{
		&change.CreateSchema{Name: "billing"},
		&change.CreateTable{
			Schema: "billing",
			Table:  "accounts",
			Columns: []change.Column{
				change.NewColumn("id", change.Int32()).PrimaryKey().Identity(),
				change.NewColumn("name", change.String(50)).Default("unnamed"),
				change.NewColumn("opened_at", change.DateTime()).Default(change.CurrentUTCDateTime),
			},
		},
		&change.CreateIndex{
			Schema: "billing",
			Table:  "accounts",
			Index: change.Index{
				Name: "ix_accounts_name",
				Columns: []change.IndexColumn{
					{Name: "name"},
					{Name: "opened_at", Direction: change.Descending},
				},
				Unique:   true,
				Features: change.Features{}.With(change.FillFactor, 80).With(change.Include, []string{"id"}),
			},
		},
		&change.CreateForeignKey{ForeignKey: change.ForeignKey{
			Name:           "fk_invoices_accounts",
			Table:          "invoices",
			Columns:        []string{"account_id"},
			ForeignSchema:  "billing",
			ForeignTable:   "accounts",
			ForeignColumns: []string{"id"},
			OnDelete:       change.SetNull,
		}},
		&change.UpsertRows{
			Schema:       "billing",
			Table:        "accounts",
			MatchColumns: []string{"id"},
			Rows:         []change.Row{{{Column: "id", Value: 1}, {Column: "name", Value: "House"}}},
		},
		&change.ExecuteSQL{SQL: "UPDATE invoices SET account_id = 1"},
	}, up)

	for _, c := range up {
		require.NoError(t, change.Validate(c), c.Kind())
	}

	down, err := Collect(context.Background(), m.Down, gen, nil)
	require.NoError(t, err)
	require.Equal(t, []change.Change{&change.DeleteTable{Schema: "billing", Table: "accounts"}}, down)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "not a list", doc: "up: {}", wantErr: "line 1: expected a list of changes"},
		{name: "two keys", doc: "up:\n  - {sql: a, create_schema: b}", wantErr: "line 2: each change must be a mapping with exactly one key"},
		{name: "bad column", doc: "up:\n  - add_column:\n      table: t\n      column: id", wantErr: `line 2: add_column: parsing column "id"`},
		{name: "bad direction", doc: "up:\n  - create_index:\n      table: t\n      name: ix\n      columns: [a sideways]", wantErr: `invalid index column direction "sideways"`},
		{name: "bad constraint", doc: "up:\n  - add_constraint:\n      table: t\n      name: c\n      type: exclusion", wantErr: `unknown constraint type "exclusion"`},
		{name: "bad row", doc: "up:\n  - insert:\n      table: t\n      rows: [[1, 2]]", wantErr: "a row must be a mapping of column to value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(1, "", []byte(tt.doc))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReverse(t *testing.T) {
	up := []change.Change{
		&change.CreateTable{Table: "users", Columns: []change.Column{change.NewColumn("id", change.Int32())}},
		&change.CreateColumn{Table: "users", Column: change.NewColumn("name", change.Text()).Nullable()},
		&change.RenameColumn{Table: "users", Column: "name", NewName: "full_name"},
	}

	down, err := Reverse(up)
	require.NoError(t, err)
	require.Equal(t, []change.Change{
		&change.RenameColumn{Table: "users", Column: "full_name", NewName: "name"},
		&change.DeleteColumn{Table: "users", Column: "name"},
		&change.DeleteTable{Table: "users"},
	}, down)

	_, err = Reverse(append(up, &change.ExecuteSQL{SQL: "SELECT 1"}))
	require.ErrorContains(t, err, "ExecuteSQL has no mechanical inverse")

	var missing *change.CreateTable
	_, err = Reverse(append(up, missing))
	require.EqualError(t, err, "change 3 is nil")
}

func TestCollect_NilChange(t *testing.T) {
	gen, err := dialect.New(dialect.Generic, "")
	require.NoError(t, err)

	var missing *change.CreateTable
	_, err = Collect(context.Background(), func(_ context.Context, b *Builder) error {
		b.SQL("SELECT 1").Add(missing)
		return nil
	}, gen, nil)
	require.EqualError(t, err, "change 1 is nil")
}

func TestCheckDuplicates(t *testing.T) {
	ms := []*Migration{
		{Version: 3, Source: "c"},
		{Version: 1, Source: "a"},
		{Version: 3, Source: "d"},
	}

	require.EqualError(t, CheckDuplicates(ms), "duplicate migration version 3 (c and d)")

	Sort(ms)
	require.Equal(t, []int64{1, 3, 3}, []int64{ms[0].Version, ms[1].Version, ms[2].Version})
	require.Equal(t, "c", ms[1].Source)
}
