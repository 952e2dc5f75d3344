package dialect

import (
	"strconv"
	"strings"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
)

// Base returns the ANSI SQL layer every generator starts from.
func Base() Override {
	return Override{
		Quoter:  quote.ANSI(),
		Split:   utils.Ptr(splitter.Default()),
		Catalog: utils.Ptr(oracle.ANSI()),
		Types: TypeMap{
			change.TypeBoolean:        Plain("BOOLEAN"),
			change.TypeInt16:          Plain("SMALLINT"),
			change.TypeInt32:          Plain("INTEGER"),
			change.TypeInt64:          Plain("BIGINT"),
			change.TypeDecimal:        Sized("DECIMAL", "DECIMAL($precision,$scale)"),
			change.TypeFloat:          Plain("REAL"),
			change.TypeDouble:         Plain("DOUBLE PRECISION"),
			change.TypeString:         Sized("VARCHAR(255)", "VARCHAR($size)"),
			change.TypeAnsiString:     Sized("VARCHAR(255)", "VARCHAR($size)"),
			change.TypeText:           Plain("CLOB"),
			change.TypeBinary:         Sized("BLOB", "VARBINARY($size)"),
			change.TypeDate:           Plain("DATE"),
			change.TypeTime:           Plain("TIME"),
			change.TypeDateTime:       Plain("TIMESTAMP"),
			change.TypeDateTimeOffset: Plain("TIMESTAMP WITH TIME ZONE"),
			change.TypeGUID:           Plain("CHAR(36)"),
		},
		SystemMethods: map[change.SystemMethod]string{
			change.CurrentDateTime:    "CURRENT_TIMESTAMP",
			change.CurrentUTCDateTime: "CURRENT_TIMESTAMP",
			change.CurrentUser:        "CURRENT_USER",
		},
		Column: columnStyle{identity: "GENERATED BY DEFAULT AS IDENTITY"}.render,
		Productions: map[change.Kind]Production{
			change.KindCreateTable:      createTable,
			change.KindDeleteTable:      deleteTable,
			change.KindRenameTable:      renameTable,
			change.KindCreateColumn:     createColumn,
			change.KindAlterColumn:      alterColumn,
			change.KindRenameColumn:     renameColumn,
			change.KindDeleteColumn:     deleteColumn,
			change.KindCreateIndex:      createIndex,
			change.KindDeleteIndex:      deleteIndex,
			change.KindCreateForeignKey: createForeignKey,
			change.KindDeleteForeignKey: deleteForeignKey,
			change.KindCreateConstraint: createConstraint,
			change.KindDeleteConstraint: deleteConstraint,
			change.KindInsertRows:       insertRows,
			change.KindUpdateRows:       updateRows,
			change.KindDeleteRows:       deleteRows,
			change.KindUpsertRows:       mergeRows,
			change.KindExecuteSQL:       executeSQL,
			change.KindCreateSchema:     createSchema,
			change.KindDeleteSchema:     deleteSchema,
			change.KindCreateSequence:   createSequence,
			change.KindDeleteSequence:   deleteSequence,
			change.KindPerform:          perform,
		},
	}
}

// columnStyle renders column definitions in the order
// name type [identity] [DEFAULT v] [NOT NULL|NULL] [identity] [UNIQUE].
type columnStyle struct {
	identity          string
	identityAfterNull bool
	explicitNull      bool
}

func (s columnStyle) render(ctx *Context, col change.Column) (string, error) {
	typ, err := ctx.Type(col.Type)
	if err != nil {
		return "", err
	}

	parts := []string{ctx.Ident(col.Name), typ}
	if col.IsIdentity && !s.identityAfterNull {
		parts = append(parts, s.identity)
	}

	if col.DefaultValue != nil {
		v, err := ctx.Value(col.DefaultValue)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+v)
	}

	switch {
	case !col.IsNullable:
		parts = append(parts, "NOT NULL")
	case s.explicitNull:
		parts = append(parts, "NULL")
	}

	if col.IsIdentity && s.identityAfterNull {
		parts = append(parts, s.identity)
	}

	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " "), nil
}

// join joins generated statements, one per line.
func join(stmts []string) string {
	return strings.Join(stmts, "\n")
}

func createTable(ctx *Context, c change.Change) (string, error) {
	return tableDefinition(ctx, c.(*change.CreateTable), true, "")
}

// tableDefinition renders CREATE TABLE with one column per line, an optional
// table level primary key and a suffix (engine clauses and the like).
func tableDefinition(ctx *Context, t *change.CreateTable, primaryKey bool, suffix string) (string, error) {
	lines := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		def, err := ctx.Column(col)
		if err != nil {
			return "", err
		}
		lines = append(lines, "  "+def)
	}

	if keys := t.PrimaryKey(); primaryKey && len(keys) > 0 {
		clause := "PRIMARY KEY (" + ctx.Idents(keys) + ")"
		if name := t.PrimaryKeyName(); name != "" {
			clause = "CONSTRAINT " + ctx.Ident(name) + " " + clause
		}
		lines = append(lines, "  "+clause)
	}

	sql := "CREATE TABLE " + ctx.Table(t.Schema, t.Table) + " (\n" + strings.Join(lines, ",\n") + "\n)"
	if suffix != "" {
		sql += " " + suffix
	}

	return sql + ";", nil
}

func deleteTable(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteTable)
	return ctx.SQL().Drop("TABLE").Qualified(d.Schema, d.Table).String(), nil
}

func renameTable(ctx *Context, c change.Change) (string, error) {
	r := c.(*change.RenameTable)
	return ctx.SQL().Alter("TABLE").Qualified(r.Schema, r.Table).Raw("RENAME").To(r.NewName).String(), nil
}

func createColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.CreateColumn)
	def, err := ctx.Column(a.Column)
	if err != nil {
		return "", err
	}

	if a.Column.IsPrimaryKey {
		def += " PRIMARY KEY"
	}

	return ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("ADD COLUMN").Raw(def).String(), nil
}

func alterColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.AlterColumn)
	typ, err := ctx.Type(a.Column.Type)
	if err != nil {
		return "", err
	}

	alter := func() *Builder {
		return ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("ALTER COLUMN").Name(a.Column.Name)
	}

	stmts := []string{alter().Raw("SET DATA TYPE").Raw(typ).String()}

	if a.Column.IsNullable {
		stmts = append(stmts, alter().Raw("DROP NOT NULL").String())
	} else {
		stmts = append(stmts, alter().Raw("SET NOT NULL").String())
	}

	if a.Column.DefaultValue == nil {
		stmts = append(stmts, alter().Raw("DROP DEFAULT").String())
	} else {
		v, err := ctx.Value(a.Column.DefaultValue)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, alter().Raw("SET DEFAULT").Raw(v).String())
	}

	return join(stmts), nil
}

func renameColumn(ctx *Context, c change.Change) (string, error) {
	r := c.(*change.RenameColumn)
	return ctx.SQL().
		Alter("TABLE").Qualified(r.Schema, r.Table).
		Raw("RENAME COLUMN").Name(r.Column).
		To(r.NewName).
		String(), nil
}

func deleteColumn(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteColumn)
	return ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP COLUMN").Name(d.Column).String(), nil
}

// indexColumns renders the parenthesized index column list.
func indexColumns(ctx *Context, idx change.Index) string {
	cols := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		cols[i] = ctx.Ident(col.Name)
		if col.Direction == change.Descending {
			cols[i] += " DESC"
		}
	}
	return "(" + strings.Join(cols, ", ") + ")"
}

func indexKind(idx change.Index) string {
	if idx.Unique {
		return "UNIQUE INDEX"
	}
	return "INDEX"
}

func createIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)
	return ctx.SQL().
		Create(indexKind(ci.Index)).Name(ci.Index.Name).
		Raw("ON").Qualified(ci.Schema, ci.Table).
		Raw(indexColumns(ctx, ci.Index)).
		String(), nil
}

func deleteIndex(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteIndex)
	return ctx.SQL().Drop("INDEX").Qualified(d.Schema, d.Name).String(), nil
}

func createForeignKey(ctx *Context, c change.Change) (string, error) {
	fk := c.(*change.CreateForeignKey).ForeignKey

	foreignSchema := fk.ForeignSchema
	if foreignSchema == "" {
		foreignSchema = fk.Schema
	}

	b := ctx.SQL().
		Alter("TABLE").Qualified(fk.Schema, fk.Table).
		Raw("ADD CONSTRAINT").Name(fk.Name).
		Raw("FOREIGN KEY").Names(fk.Columns).
		Raw("REFERENCES").Qualified(foreignSchema, fk.ForeignTable).Names(fk.ForeignColumns)

	if fk.OnDelete != change.NoAction {
		b.Raw("ON DELETE").Raw(string(fk.OnDelete))
	}
	if fk.OnUpdate != change.NoAction {
		b.Raw("ON UPDATE").Raw(string(fk.OnUpdate))
	}

	return b.String(), nil
}

func deleteForeignKey(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteForeignKey)
	return ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP CONSTRAINT").Name(d.Name).String(), nil
}

func constraintClause(ctx *Context, con change.Constraint) string {
	switch con.Type {
	case change.PrimaryKeyConstraint:
		return "PRIMARY KEY (" + ctx.Idents(con.Columns) + ")"
	case change.UniqueConstraint:
		return "UNIQUE (" + ctx.Idents(con.Columns) + ")"
	default:
		return "CHECK (" + con.Check + ")"
	}
}

func createConstraint(ctx *Context, c change.Change) (string, error) {
	cc := c.(*change.CreateConstraint)
	return ctx.SQL().
		Alter("TABLE").Qualified(cc.Schema, cc.Table).
		Raw("ADD CONSTRAINT").Name(cc.Constraint.Name).
		Raw(constraintClause(ctx, cc.Constraint)).
		String(), nil
}

func deleteConstraint(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteConstraint)
	return ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP CONSTRAINT").Name(d.Name).String(), nil
}

// predicate renders column equalities AND-ed together. Nil values compare
// with IS NULL.
func predicate(ctx *Context, row change.Row) (string, error) {
	conds := make([]string, len(row))
	for i, f := range row {
		if f.Value == nil || change.IsNull(f.Value) {
			conds[i] = ctx.Ident(f.Column) + " IS NULL"
			continue
		}

		v, err := ctx.Value(f.Value)
		if err != nil {
			return "", err
		}
		conds[i] = ctx.Ident(f.Column) + " = " + v
	}
	return strings.Join(conds, " AND "), nil
}

// assignments renders col = value pairs for SET clauses.
func assignments(ctx *Context, row change.Row) (string, error) {
	sets := make([]string, len(row))
	for i, f := range row {
		v, err := ctx.Value(f.Value)
		if err != nil {
			return "", err
		}
		sets[i] = ctx.Ident(f.Column) + " = " + v
	}
	return strings.Join(sets, ", "), nil
}

// insertValues renders the column and value lists of one row.
func insertValues(ctx *Context, row change.Row) (string, string, error) {
	vals, err := ctx.Values(row.Values())
	if err != nil {
		return "", "", err
	}
	return "(" + ctx.Idents(row.Columns()) + ")", "(" + vals + ")", nil
}

func insertRows(ctx *Context, c change.Change) (string, error) {
	ins := c.(*change.InsertRows)
	stmts := make([]string, 0, len(ins.Rows))
	for _, row := range ins.Rows {
		cols, vals, err := insertValues(ctx, row)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, ctx.SQL().Raw("INSERT INTO").Qualified(ins.Schema, ins.Table).Raw(cols).Raw("VALUES").Raw(vals).String())
	}
	return join(stmts), nil
}

func updateRows(ctx *Context, c change.Change) (string, error) {
	u := c.(*change.UpdateRows)
	sets, err := assignments(ctx, u.Set)
	if err != nil {
		return "", err
	}

	b := ctx.SQL().Raw("UPDATE").Qualified(u.Schema, u.Table).Raw("SET").Raw(sets)
	if !u.AllRows {
		where, err := predicate(ctx, u.Where)
		if err != nil {
			return "", err
		}
		b.Raw("WHERE").Raw(where)
	}

	return b.String(), nil
}

func deleteRows(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteRows)
	if d.AllRows {
		return ctx.SQL().Raw("DELETE FROM").Qualified(d.Schema, d.Table).String(), nil
	}

	stmts := make([]string, 0, len(d.Where))
	for _, row := range d.Where {
		where, err := predicate(ctx, row)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, ctx.SQL().Raw("DELETE FROM").Qualified(d.Schema, d.Table).Raw("WHERE").Raw(where).String())
	}
	return join(stmts), nil
}

// mergeRows renders each upserted row as a standard MERGE statement.
func mergeRows(ctx *Context, c change.Change) (string, error) {
	u := c.(*change.UpsertRows)
	stmts := make([]string, 0, len(u.Rows))
	for _, row := range u.Rows {
		cols, vals, err := insertValues(ctx, row)
		if err != nil {
			return "", err
		}

		on := make([]string, len(u.MatchColumns))
		for i, m := range u.MatchColumns {
			on[i] = "target." + ctx.Ident(m) + " = source." + ctx.Ident(m)
		}

		b := ctx.SQL().
			Raw("MERGE INTO").Qualified(u.Schema, u.Table).Raw("AS target").
			Raw("USING (VALUES " + vals + ") AS source").Raw(cols).
			Raw("ON (" + strings.Join(on, " AND ") + ")")

		if update := u.ConflictColumns(row); len(update) > 0 {
			sets := make([]string, len(update))
			for i, col := range update {
				sets[i] = ctx.Ident(col) + " = source." + ctx.Ident(col)
			}
			b.Raw("WHEN MATCHED THEN UPDATE SET").Raw(strings.Join(sets, ", "))
		}

		sources := make([]string, len(row))
		for i, f := range row {
			sources[i] = "source." + ctx.Ident(f.Column)
		}
		b.Raw("WHEN NOT MATCHED THEN INSERT").Raw(cols).Raw("VALUES (" + strings.Join(sources, ", ") + ")")

		stmts = append(stmts, b.String())
	}
	return join(stmts), nil
}

func executeSQL(_ *Context, c change.Change) (string, error) {
	return strings.TrimSpace(c.(*change.ExecuteSQL).SQL), nil
}

func createSchema(ctx *Context, c change.Change) (string, error) {
	return ctx.SQL().Create("SCHEMA").Name(c.(*change.CreateSchema).Name).String(), nil
}

func deleteSchema(ctx *Context, c change.Change) (string, error) {
	return ctx.SQL().Drop("SCHEMA").Name(c.(*change.DeleteSchema).Name).String(), nil
}

func createSequence(ctx *Context, c change.Change) (string, error) {
	s := c.(*change.CreateSequence)
	b := ctx.SQL().Create("SEQUENCE").Qualified(s.Schema, s.Name)

	if s.StartWith != nil {
		b.Raw("START WITH").Raw(strconv.FormatInt(*s.StartWith, 10))
	}
	if s.IncrementBy != 0 {
		b.Raw("INCREMENT BY").Raw(strconv.FormatInt(s.IncrementBy, 10))
	}
	if s.MinValue != nil {
		b.Raw("MINVALUE").Raw(strconv.FormatInt(*s.MinValue, 10))
	}
	if s.MaxValue != nil {
		b.Raw("MAXVALUE").Raw(strconv.FormatInt(*s.MaxValue, 10))
	}
	if s.Cache != nil {
		b.Raw("CACHE").Raw(strconv.FormatInt(*s.Cache, 10))
	}
	if s.Cycle {
		b.Raw("CYCLE")
	}

	return b.String(), nil
}

func deleteSequence(ctx *Context, c change.Change) (string, error) {
	s := c.(*change.DeleteSequence)
	return ctx.SQL().Drop("SEQUENCE").Qualified(s.Schema, s.Name).String(), nil
}

// perform produces no SQL: the runner invokes the callback itself.
func perform(*Context, change.Change) (string, error) {
	return "", nil
}

// unsupported returns a production that always fails with reason.
func unsupported(reason string) Production {
	return func(ctx *Context, _ change.Change) (string, error) {
		return "", ctx.Unsupported("%s", reason)
	}
}
