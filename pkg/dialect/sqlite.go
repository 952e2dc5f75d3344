package dialect

import (
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
)

func sqliteOverrides() []Override {
	return []Override{
		{
			Vendor:  SQLite,
			Quoter:  quote.SQLite(),
			Split:   utils.Ptr(splitter.SQLite()),
			Catalog: utils.Ptr(oracle.SQLite()),
			Types: TypeMap{
				change.TypeBoolean:        Plain("INTEGER"),
				change.TypeInt16:          Plain("INTEGER"),
				change.TypeInt32:          Plain("INTEGER"),
				change.TypeInt64:          Plain("INTEGER"),
				change.TypeDecimal:        Plain("NUMERIC"),
				change.TypeFloat:          Plain("REAL"),
				change.TypeDouble:         Plain("REAL"),
				change.TypeString:         Plain("TEXT"),
				change.TypeAnsiString:     Plain("TEXT"),
				change.TypeText:           Plain("TEXT"),
				change.TypeBinary:         Plain("BLOB"),
				change.TypeDate:           Plain("TEXT"),
				change.TypeTime:           Plain("TEXT"),
				change.TypeDateTime:       Plain("TEXT"),
				change.TypeDateTimeOffset: Plain("TEXT"),
				change.TypeGUID:           Plain("TEXT"),
			},
			SystemMethods: map[change.SystemMethod]string{
				change.CurrentDateTime:    "CURRENT_TIMESTAMP",
				change.CurrentUTCDateTime: "CURRENT_TIMESTAMP",
				change.CurrentUser:        "",
			},
			Features: []change.Feature{change.Filter},
			Column:   sqliteColumn,
			Productions: map[change.Kind]Production{
				change.KindCreateTable:      sqliteCreateTable,
				change.KindCreateColumn:     sqliteCreateColumn,
				change.KindAlterColumn:      unsupported("sqlite cannot alter columns"),
				change.KindRenameColumn:     unsupported("renaming columns requires sqlite 3.25"),
				change.KindDeleteColumn:     unsupported("dropping columns requires sqlite 3.35"),
				change.KindCreateIndex:      sqliteIndex,
				change.KindCreateForeignKey: unsupported("sqlite cannot add foreign keys to existing tables"),
				change.KindDeleteForeignKey: unsupported("sqlite cannot drop foreign keys"),
				change.KindCreateConstraint: unsupported("sqlite cannot add constraints to existing tables"),
				change.KindDeleteConstraint: unsupported("sqlite cannot drop constraints"),
				change.KindUpsertRows:       insertOrIgnore,
				change.KindCreateSchema:     unsupported("sqlite has no schemas"),
				change.KindDeleteSchema:     unsupported("sqlite has no schemas"),
				change.KindCreateSequence:   unsupported("sqlite has no sequences"),
				change.KindDeleteSequence:   unsupported("sqlite has no sequences"),
			},
		},
		{
			Vendor:  SQLite,
			Version: "3.24",
			Productions: map[change.Kind]Production{
				change.KindUpsertRows: onConflict("excluded"),
			},
		},
		{
			Vendor:  SQLite,
			Version: "3.25",
			Productions: map[change.Kind]Production{
				change.KindRenameColumn: renameColumn,
			},
		},
		{
			Vendor:  SQLite,
			Version: "3.35",
			Productions: map[change.Kind]Production{
				change.KindDeleteColumn: deleteColumn,
			},
		},
	}
}

// sqliteColumn renders identity columns as INTEGER PRIMARY KEY AUTOINCREMENT,
// the only auto increment form SQLite has.
func sqliteColumn(ctx *Context, col change.Column) (string, error) {
	if !col.IsIdentity {
		return columnStyle{}.render(ctx, col)
	}

	if !col.IsPrimaryKey {
		return "", ctx.Unsupported("identity column %q must be the primary key", col.Name)
	}

	return ctx.Ident(col.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
}

func sqliteCreateTable(ctx *Context, c change.Change) (string, error) {
	t := c.(*change.CreateTable)

	identity := false
	for _, col := range t.Columns {
		identity = identity || col.IsIdentity
	}

	if identity && len(t.PrimaryKey()) > 1 {
		return "", ctx.Unsupported("identity columns cannot be part of a composite primary key")
	}

	return tableDefinition(ctx, t, !identity, "")
}

func sqliteCreateColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.CreateColumn)
	if a.Column.IsPrimaryKey || a.Column.IsUnique {
		return "", ctx.Unsupported("column %q: sqlite cannot add key columns to existing tables", a.Column.Name)
	}
	return createColumn(ctx, c)
}

func sqliteIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)

	// the index lives in the table's schema; the table is named unqualified
	b := ctx.SQL().
		Create(indexKind(ci.Index)).Qualified(ci.Schema, ci.Index.Name).
		Raw("ON").Name(ci.Table).
		Raw(indexColumns(ctx, ci.Index))

	if filter, ok := ci.Index.Features.String(change.Filter); ok {
		b.Raw("WHERE").Raw(filter)
	}

	return b.String(), nil
}

// insertOrIgnore covers insert only upserts on versions without ON CONFLICT.
func insertOrIgnore(ctx *Context, c change.Change) (string, error) {
	u := c.(*change.UpsertRows)
	if !u.InsertOnly {
		return "", ctx.Unsupported("upsert requires sqlite 3.24")
	}

	stmts := make([]string, 0, len(u.Rows))
	for _, row := range u.Rows {
		cols, vals, err := insertValues(ctx, row)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, ctx.SQL().Raw("INSERT OR IGNORE INTO").Qualified(u.Schema, u.Table).Raw(cols).Raw("VALUES").Raw(vals).String())
	}
	return join(stmts), nil
}
