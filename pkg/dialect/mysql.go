package dialect

import (
	"strings"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
	"github.com/pseudomuto/crossmigrate/pkg/utils"
)

func mysqlOverrides() []Override {
	return []Override{
		{
			Vendor:  MySQL,
			Quoter:  quote.MySQL(),
			Split:   utils.Ptr(splitter.MySQL()),
			Catalog: utils.Ptr(oracle.MySQL()),
			Types: TypeMap{
				change.TypeBoolean:        Plain("TINYINT(1)"),
				change.TypeInt32:          Plain("INT"),
				change.TypeDouble:         Plain("DOUBLE"),
				change.TypeFloat:          Plain("FLOAT"),
				change.TypeText:           Plain("LONGTEXT"),
				change.TypeBinary:         Sized("LONGBLOB", "VARBINARY($size)"),
				change.TypeDateTime:       Plain("DATETIME"),
				change.TypeDateTimeOffset: Plain("DATETIME"),
			},
			SystemMethods: map[change.SystemMethod]string{
				change.CurrentUTCDateTime: "(UTC_TIMESTAMP())",
				change.NewGUID:            "(UUID())",
			},
			Features: []change.Feature{change.Algorithm},
			Column:   columnStyle{identity: "AUTO_INCREMENT", identityAfterNull: true}.render,
			Productions: map[change.Kind]Production{
				change.KindAlterColumn:      mysqlAlterColumn,
				change.KindRenameColumn:     unsupported("renaming columns requires mysql 8.0"),
				change.KindCreateIndex:      mysqlIndex,
				change.KindDeleteIndex:      mysqlDeleteIndex,
				change.KindDeleteForeignKey: mysqlDeleteForeignKey,
				change.KindDeleteConstraint: mysqlDeleteConstraint,
				change.KindUpsertRows:       onDuplicateKey,
				change.KindCreateSequence:   unsupported("mysql has no sequences"),
				change.KindDeleteSequence:   unsupported("mysql has no sequences"),
			},
		},
		{
			Vendor:  MySQL,
			Version: "8.0",
			Productions: map[change.Kind]Production{
				change.KindRenameColumn: renameColumn,
			},
		},
	}
}

func mysqlAlterColumn(ctx *Context, c change.Change) (string, error) {
	a := c.(*change.AlterColumn)
	def, err := ctx.Column(a.Column)
	if err != nil {
		return "", err
	}

	return ctx.SQL().Alter("TABLE").Qualified(a.Schema, a.Table).Raw("MODIFY COLUMN").Raw(def).String(), nil
}

func mysqlIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)
	b := ctx.SQL().
		Create(indexKind(ci.Index)).Name(ci.Index.Name).
		Raw("ON").Qualified(ci.Schema, ci.Table).
		Raw(indexColumns(ctx, ci.Index))

	if alg, ok := ci.Index.Features.String(change.Algorithm); ok {
		b.Raw("USING").Raw(strings.ToUpper(alg))
	}

	return b.String(), nil
}

func mysqlDeleteIndex(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteIndex)
	return ctx.SQL().Drop("INDEX").Name(d.Name).Raw("ON").Qualified(d.Schema, d.Table).String(), nil
}

func mysqlDeleteForeignKey(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteForeignKey)
	return ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table).Raw("DROP FOREIGN KEY").Name(d.Name).String(), nil
}

// mysqlDeleteConstraint drops constraints by their kind when the definition
// is known. MySQL only accepts DROP CONSTRAINT from 8.0.19.
func mysqlDeleteConstraint(ctx *Context, c change.Change) (string, error) {
	d := c.(*change.DeleteConstraint)
	if d.Definition == nil {
		return ctx.Next(c)
	}

	b := ctx.SQL().Alter("TABLE").Qualified(d.Schema, d.Table)
	switch d.Definition.Type {
	case change.PrimaryKeyConstraint:
		b.Raw("DROP PRIMARY KEY")
	case change.UniqueConstraint:
		b.Raw("DROP INDEX").Name(d.Name)
	default:
		b.Raw("DROP CHECK").Name(d.Name)
	}

	return b.String(), nil
}

func onDuplicateKey(ctx *Context, c change.Change) (string, error) {
	u := c.(*change.UpsertRows)
	stmts := make([]string, 0, len(u.Rows))
	for _, row := range u.Rows {
		cols, vals, err := insertValues(ctx, row)
		if err != nil {
			return "", err
		}

		var sets []string
		for _, col := range u.ConflictColumns(row) {
			sets = append(sets, ctx.Ident(col)+" = VALUES("+ctx.Ident(col)+")")
		}

		// a self assignment keeps existing rows untouched
		if len(sets) == 0 {
			m := ctx.Ident(u.MatchColumns[0])
			sets = append(sets, m+" = "+m)
		}

		stmts = append(stmts, ctx.SQL().
			Raw("INSERT INTO").Qualified(u.Schema, u.Table).Raw(cols).
			Raw("VALUES").Raw(vals).
			Raw("ON DUPLICATE KEY UPDATE").Raw(strings.Join(sets, ", ")).
			String())
	}
	return join(stmts), nil
}
