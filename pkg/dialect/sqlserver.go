package dialect

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
)

const sqlServerDefaultSchema = "dbo"

func sqlServerOverrides() []Override {
	return []Override{
		{
			Vendor:  SQLServer,
			Quoter:  quote.SQLServer(),
			Split:   utils.Ptr(splitter.SQLServer()),
			Catalog: utils.Ptr(oracle.SQLServer()),
			Types: TypeMap{
				change.TypeBoolean:        Plain("BIT"),
				change.TypeInt32:          Plain("INT"),
				change.TypeFloat:          Plain("REAL"),
				change.TypeDouble:         Plain("FLOAT"),
				change.TypeString:         Sized("NVARCHAR(255)", "NVARCHAR($size)"),
				change.TypeText:           Plain("NVARCHAR(MAX)"),
				change.TypeBinary:         Sized("VARBINARY(MAX)", "VARBINARY($size)"),
				change.TypeDateTime:       Plain("DATETIME2"),
				change.TypeDateTimeOffset: Plain("DATETIMEOFFSET"),
				change.TypeGUID:           Plain("UNIQUEIDENTIFIER"),
			},
			SystemMethods: map[change.SystemMethod]string{
				change.CurrentDateTime:    "GETDATE()",
				change.CurrentUTCDateTime: "GETUTCDATE()",
				change.NewGUID:            "NEWID()",
				change.CurrentUser:        "CURRENT_USER",
			},
			Features: []change.Feature{change.FillFactor, change.Filter, change.Clustered, change.Include},
			Column:   columnStyle{identity: "IDENTITY(1,1)", explicitNull: true}.render,
			Productions: map[change.Kind]Production{
				change.KindRenameTable:      sqlServerRenameTable,
				change.KindCreateColumn:     sqlServerCreateColumn,
				change.KindAlterColumn:      sqlServerAlterColumn,
				change.KindRenameColumn:     sqlServerRenameColumn,
				change.KindDeleteColumn:     sqlServerDeleteColumn,
				change.KindCreateIndex:      sqlServerIndex,
				change.KindDeleteIndex:      sqlServerDeleteIndex,
				change.KindCreateForeignKey: sqlServerForeignKey,
				change.KindCreateSequence:   unsupported("sequences require sqlserver 2012"),
				change.KindDeleteSequence:   unsupported("sequences require sqlserver 2012"),
			},
		},
		{
			Vendor:  SQLServer,
			Version: "2012",
			Productions: map[change.Kind]Production{
				change.KindCreateSequence: createSequence,
				change.KindDeleteSequence: deleteSequence,
			},
		},
	}
}

// objectName renders the N'' literal sp_rename and OBJECT_ID expect, using
// the default schema when none is given.
func objectName(ctx *Context, parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = ctx.Ident(p)
	}
	return ctx.Quoter().QuoteString(strings.Join(quoted, "."))
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return sqlServerDefaultSchema
	}
	return schema
}

func sqlServerRenameTable(ctx *Context, c change.Change) (string, error) {
	r := c.(*change.RenameTable)
	return ctx.SQL().
		Raw("EXEC sp_rename").
		Raw(objectName(ctx, schemaOrDefault(r.Schema), r.Table) + ",").
		Value(r.NewName).
		String(), nil
}

func sqlServerRenameColumn(ctx *Context, c change.Change) (string, error) {
	r := c.(*change.RenameColumn)
	return ctx.SQL().
		Raw("EXEC sp_rename").
		Raw(objectName(ctx, schemaOrDefault(r.Schema), r.Table, r.Column) + ",").
		Raw(ctx.Quoter().QuoteString(r.NewName) + ",").
		Value("COLUMN").
		String(), nil
}

func sqlServerCreateColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.CreateColumn)
	def, err := ctx.Column(a.Column)
	if err != nil {
		return "", err
	}

	if a.Column.IsPrimaryKey {
		def += " PRIMARY KEY"
	}

	return ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("ADD").Raw(def).String(), nil
}

// dropDefault returns the batch dropping the default constraint bound to a
// column. SQL Server names such constraints itself, so the name is looked up
// at execution time. When an oracle is available and reports no default, no
// SQL is needed.
func dropDefault(ctx *Context, schema, table, column string) (string, error) {
	if o := ctx.Oracle(); o != nil {
		exists, err := o.DefaultValueExists(ctx.Ctx(), schema, table, column)
		if err != nil {
			return "", errors.Wrap(err, "checking default constraint")
		}
		if !exists {
			return "", nil
		}
	}

	qualified := ctx.Table(schemaOrDefault(schema), table)
	lines := []string{
		"DECLARE @default sysname;",
		"SELECT @default = dc.name FROM sys.default_constraints dc " +
			"JOIN sys.columns c ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id " +
			"WHERE dc.parent_object_id = OBJECT_ID(" + objectName(ctx, schemaOrDefault(schema), table) + ") " +
			"AND c.name = " + ctx.Quoter().QuoteString(column) + ";",
		"IF @default IS NOT NULL EXEC(" + ctx.Quoter().QuoteString("ALTER TABLE "+qualified+" DROP CONSTRAINT ") + " + QUOTENAME(@default));",
	}
	return join(lines), nil
}

func sqlServerAlterColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.AlterColumn)

	stmts := make([]string, 0, 3)
	drop, err := dropDefault(ctx, a.Schema, a.Table, a.Column.Name)
	if err != nil {
		return "", err
	}
	if drop != "" {
		stmts = append(stmts, drop)
	}

	// defaults are separate constraints in SQL Server
	col := a.Column
	col.DefaultValue = nil
	def, err := ctx.Column(col)
	if err != nil {
		return "", err
	}
	stmts = append(stmts, ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("ALTER COLUMN").Raw(def).String())

	if a.Column.DefaultValue != nil {
		v, err := ctx.Value(a.Column.DefaultValue)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, ctx.SQL().
			Alter("TABLE").Qualified(a.Schema, a.Table).
			Raw("ADD DEFAULT").Raw(v).
			Raw("FOR").Name(a.Column.Name).
			String())
	}

	return join(stmts), nil
}

func sqlServerDeleteColumn(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteColumn)

	drop, err := dropDefault(ctx, d.Schema, d.Table, d.Column)
	if err != nil {
		return "", err
	}

	stmt := ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP COLUMN").Name(d.Column).String()
	if drop == "" {
		return stmt, nil
	}

	return join([]string{drop, stmt}), nil
}

func sqlServerIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)
	f := ci.Index.Features

	kind := "INDEX"
	if clustered, ok := f.Bool(change.Clustered); ok {
		if clustered {
			kind = "CLUSTERED " + kind
		} else {
			kind = "NONCLUSTERED " + kind
		}
	}
	if ci.Index.Unique {
		kind = "UNIQUE " + kind
	}

	b := ctx.SQL().
		Create(kind).Name(ci.Index.Name).
		Raw("ON").Qualified(ci.Schema, ci.Table).
		Raw(indexColumns(ctx, ci.Index))

	if include, ok := f.Strings(change.Include); ok {
		b.Raw("INCLUDE").Names(include)
	}
	if filter, ok := f.String(change.Filter); ok {
		b.Raw("WHERE").Raw(filter)
	}
	if ff, ok := f.Int(change.FillFactor); ok {
		b.Raw("WITH (FILLFACTOR = " + strconv.Itoa(ff) + ")")
	}

	return b.String(), nil
}

func sqlServerDeleteIndex(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteIndex)
	return ctx.SQL().Drop("INDEX").Name(d.Name).Raw("ON").Qualified(d.Schema, d.Table).String(), nil
}

func sqlServerForeignKey(ctx *Context, c change.Change) (string, error) {
	fk := c.(*change.CreateForeignKey).ForeignKey
	if fk.OnDelete == change.Restrict || fk.OnUpdate == change.Restrict {
		return "", ctx.Unsupported("foreign key %q: RESTRICT is not supported, use NO ACTION", fk.Name)
	}
	return ctx.Next(c)
}
