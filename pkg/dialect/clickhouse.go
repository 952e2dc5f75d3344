package dialect

import (
	"strings"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
)

const (
	defaultEngine = "MergeTree()"

	// mutations run asynchronously unless asked to wait
	syncMutation = "SETTINGS mutations_sync = 1"
)

func clickHouseOverrides() []Override {
	return []Override{
		{
			Vendor:  ClickHouse,
			Quoter:  quote.ClickHouse(),
			Split:   utils.Ptr(splitter.ClickHouse()),
			Catalog: utils.Ptr(oracle.ClickHouse()),
			Types: TypeMap{
				change.TypeBoolean:        Plain("Bool"),
				change.TypeInt16:          Plain("Int16"),
				change.TypeInt32:          Plain("Int32"),
				change.TypeInt64:          Plain("Int64"),
				change.TypeDecimal:        Sized("Decimal(18, 4)", "Decimal($precision, $scale)"),
				change.TypeFloat:          Plain("Float32"),
				change.TypeDouble:         Plain("Float64"),
				change.TypeString:         Plain("String"),
				change.TypeAnsiString:     Plain("String"),
				change.TypeText:           Plain("String"),
				change.TypeBinary:         Plain("String"),
				change.TypeDate:           Plain("Date"),
				change.TypeTime:           {},
				change.TypeDateTime:       Plain("DateTime"),
				change.TypeDateTimeOffset: Plain("DateTime64(3)"),
				change.TypeGUID:           Plain("UUID"),
			},
			SystemMethods: map[change.SystemMethod]string{
				change.CurrentDateTime:    "now()",
				change.CurrentUTCDateTime: "now('UTC')",
				change.NewGUID:            "generateUUIDv4()",
				change.CurrentUser:        "currentUser()",
			},
			Features: []change.Feature{change.Algorithm, change.Engine, change.OrderBy},
			Column:   clickHouseColumn,
			Productions: map[change.Kind]Production{
				change.KindCreateTable:      clickHouseCreateTable,
				change.KindRenameTable:      clickHouseRenameTable,
				change.KindAlterColumn:      clickHouseAlterColumn,
				change.KindCreateColumn:     clickHouseCreateColumn,
				change.KindCreateIndex:      clickHouseIndex,
				change.KindDeleteIndex:      clickHouseDeleteIndex,
				change.KindCreateForeignKey: unsupported("clickhouse has no foreign keys"),
				change.KindDeleteForeignKey: unsupported("clickhouse has no foreign keys"),
				change.KindCreateConstraint: clickHouseConstraint,
				change.KindUpdateRows:       clickHouseUpdate,
				change.KindDeleteRows:       clickHouseDelete,
				change.KindUpsertRows:       unsupported("clickhouse has no upsert"),
				change.KindCreateSchema:     clickHouseCreateDatabase,
				change.KindDeleteSchema:     clickHouseDropDatabase,
				change.KindCreateSequence:   unsupported("clickhouse has no sequences"),
				change.KindDeleteSequence:   unsupported("clickhouse has no sequences"),
			},
		},
	}
}

func clickHouseColumn(ctx *Context, col change.Column) (string, error) {
	if col.IsIdentity {
		return "", ctx.Unsupported("identity column %q: clickhouse has no auto increment", col.Name)
	}
	if col.IsUnique {
		return "", ctx.Unsupported("unique column %q: clickhouse has no unique constraints", col.Name)
	}

	typ, err := ctx.Type(col.Type)
	if err != nil {
		return "", err
	}
	if col.IsNullable {
		typ = "Nullable(" + typ + ")"
	}

	def := ctx.Ident(col.Name) + " " + typ
	if col.DefaultValue != nil {
		v, err := ctx.Value(col.DefaultValue)
		if err != nil {
			return "", err
		}
		def += " DEFAULT " + v
	}

	return def, nil
}

// clickHouseCreateTable appends the table engine. MergeTree tables are ordered
// by the order_by feature, the primary key or nothing at all.
func clickHouseCreateTable(ctx *Context, c change.Change) (string, error) {
	t := c.(*change.CreateTable)

	engine := defaultEngine
	if e, ok := t.Features.String(change.Engine); ok {
		engine = e
	}

	suffix := NewBuilder(ctx.Quoter()).Engine(engine)
	if strings.Contains(engine, "MergeTree") {
		order, ok := t.Features.Strings(change.OrderBy)
		if !ok {
			order = t.PrimaryKey()
		}

		if len(order) == 0 {
			suffix.Raw("ORDER BY tuple()")
		} else {
			suffix.Raw("ORDER BY").Names(order)
		}
	}

	return tableDefinition(ctx, t, false, suffix.StringWithoutSemicolon())
}

func clickHouseRenameTable(ctx *Context, c change.Change) (string, error) {
	r := c.(*change.RenameTable)
	return ctx.SQL().
		Raw("RENAME TABLE").Qualified(r.Schema, r.Table).
		Raw("TO").Qualified(r.Schema, r.NewName).
		String(), nil
}

func clickHouseCreateColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.CreateColumn)
	if a.Column.IsPrimaryKey {
		return "", ctx.Unsupported("column %q: clickhouse cannot add primary key columns", a.Column.Name)
	}
	return createColumn(ctx, c)
}

func clickHouseAlterColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.AlterColumn)
	def, err := ctx.Column(a.Column)
	if err != nil {
		return "", err
	}
	return ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("MODIFY COLUMN").Raw(def).String(), nil
}

// clickHouseIndex creates a data skipping index. The algorithm feature picks
// the index type.
func clickHouseIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)
	if ci.Index.Unique {
		return "", ctx.Unsupported("index %q: clickhouse has no unique indexes", ci.Index.Name)
	}

	for _, col := range ci.Index.Columns {
		if col.Direction == change.Descending {
			return "", ctx.Unsupported("index %q: skipping indexes have no sort direction", ci.Index.Name)
		}
	}

	typ := "minmax"
	if alg, ok := ci.Index.Features.String(change.Algorithm); ok {
		typ = alg
	}

	return ctx.SQL().
		Alter("TABLE").Qualified(ci.Schema, ci.Table).
		Raw("ADD INDEX").Name(ci.Index.Name).
		Raw(indexColumns(ctx, ci.Index)).
		Raw("TYPE").Raw(typ).
		Raw("GRANULARITY 1").
		String(), nil
}

func clickHouseDeleteIndex(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteIndex)
	return ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP INDEX").Name(d.Name).String(), nil
}

func clickHouseConstraint(ctx *Context, c change.Change) (string, error) {
	cc := c.(*change.CreateConstraint)
	if cc.Constraint.Type != change.CheckConstraint {
		return "", ctx.Unsupported("constraint %q: clickhouse only supports CHECK constraints", cc.Constraint.Name)
	}
	return ctx.Next(c)
}

func clickHouseUpdate(ctx *Context, c change.Change) (string, error) {
	u := c.(*change.UpdateRows)
	sets, err := assignments(ctx, u.Set)
	if err != nil {
		return "", err
	}

	where := "1"
	if !u.AllRows {
		if where, err = predicate(ctx, u.Where); err != nil {
			return "", err
		}
	}

	return ctx.SQL().
		Alter("TABLE").Qualified(u.Schema, u.Table).
		Raw("UPDATE").Raw(sets).
		Raw("WHERE").Raw(where).
		Raw(syncMutation).
		String(), nil
}

func clickHouseDelete(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteRows)

	var conds []string
	if d.AllRows {
		conds = []string{"1"}
	}
	for _, row := range d.Where {
		p, err := predicate(ctx, row)
		if err != nil {
			return "", err
		}
		conds = append(conds, p)
	}

	stmts := make([]string, len(conds))
	for i, where := range conds {
		stmts[i] = ctx.SQL().
			Alter("TABLE").Qualified(d.Schema, d.Table).
			Raw("DELETE WHERE").Raw(where).
			Raw(syncMutation).
			String()
	}
	return join(stmts), nil
}

func clickHouseCreateDatabase(ctx *Context, c change.Change) (string, error) {
	return ctx.SQL().Create("DATABASE").Name(c.(*change.CreateSchema).Name).String(), nil
}

func clickHouseDropDatabase(ctx *Context, c change.Change) (string, error) {
	return ctx.SQL().Drop("DATABASE").Name(c.(*change.DeleteSchema).Name).String(), nil
}
