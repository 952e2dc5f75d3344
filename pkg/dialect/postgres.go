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

func postgresOverrides() []Override {
	return []Override{
		{
			Vendor:  Postgres,
			Quoter:  quote.Postgres(),
			Split:   utils.Ptr(splitter.Postgres()),
			Catalog: utils.Ptr(oracle.Postgres()),
			Types: TypeMap{
				change.TypeDecimal:        Sized("NUMERIC", "NUMERIC($precision,$scale)"),
				change.TypeText:           Plain("TEXT"),
				change.TypeBinary:         Plain("BYTEA"),
				change.TypeDateTimeOffset: Plain("TIMESTAMPTZ"),
				change.TypeGUID:           Plain("UUID"),
			},
			SystemMethods: map[change.SystemMethod]string{
				change.CurrentDateTime:    "now()",
				change.CurrentUTCDateTime: "(now() at time zone 'utc')",
				change.NewGUID:            "gen_random_uuid()",
			},
			Features: []change.Feature{change.FillFactor, change.Filter, change.Algorithm, change.Concurrently},
			Column:   serialColumn,
			Productions: map[change.Kind]Production{
				change.KindCreateIndex: postgresIndex,
				change.KindUpsertRows:  unsupported("upsert requires postgres 9.5"),
			},
		},
		{
			Vendor:  Postgres,
			Version: "9.5",
			Productions: map[change.Kind]Production{
				change.KindUpsertRows: onConflict("EXCLUDED"),
			},
		},
		{
			Vendor:  Postgres,
			Version: "10",
			Column:  columnStyle{identity: "GENERATED BY DEFAULT AS IDENTITY"}.render,
		},
		{
			Vendor:   Postgres,
			Version:  "11",
			Features: []change.Feature{change.Include},
		},
	}
}

var serialTypes = map[change.DbType]string{
	change.TypeInt16: "SMALLSERIAL",
	change.TypeInt32: "SERIAL",
	change.TypeInt64: "BIGSERIAL",
}

// serialColumn renders identity columns with the serial pseudo types used
// before identity columns existed.
func serialColumn(ctx *Context, col change.Column) (string, error) {
	if col.IsIdentity {
		serial, ok := serialTypes[col.Type.DbType]
		if !ok || col.Type.Custom != "" {
			return "", ctx.Unsupported("identity column %q must be int16, int32 or int64", col.Name)
		}

		col.IsIdentity = false
		col.Type = change.Custom(serial)
	}

	return columnStyle{}.render(ctx, col)
}

func postgresIndex(ctx *Context, c change.Change) (string, error) {
	ci := c.(*change.CreateIndex)
	f := ci.Index.Features

	b := ctx.SQL().Create(indexKind(ci.Index))
	if on, _ := f.Bool(change.Concurrently); on {
		b.Raw("CONCURRENTLY")
	}

	b.Name(ci.Index.Name).Raw("ON").Qualified(ci.Schema, ci.Table)
	if alg, ok := f.String(change.Algorithm); ok {
		b.Raw("USING").Raw(alg)
	}

	b.Raw(indexColumns(ctx, ci.Index))
	if include, ok := f.Strings(change.Include); ok {
		b.Raw("INCLUDE").Names(include)
	}
	if ff, ok := f.Int(change.FillFactor); ok {
		b.Raw("WITH (fillfactor = " + strconv.Itoa(ff) + ")")
	}
	if filter, ok := f.String(change.Filter); ok {
		b.Raw("WHERE").Raw(filter)
	}

	return b.String(), nil
}

// onConflict renders upserts as INSERT ... ON CONFLICT, referring to the
// proposed row through excluded.
func onConflict(excluded string) Production {
	return func(ctx *Context, c change.Change) (string, error) {
		u := c.(*change.UpsertRows)
		stmts := make([]string, 0, len(u.Rows))
		for _, row := range u.Rows {
			cols, vals, err := insertValues(ctx, row)
			if err != nil {
				return "", err
			}

			b := ctx.SQL().
				Raw("INSERT INTO").Qualified(u.Schema, u.Table).Raw(cols).
				Raw("VALUES").Raw(vals).
				Raw("ON CONFLICT").Names(u.MatchColumns)

			update := u.ConflictColumns(row)
			if len(update) == 0 {
				stmts = append(stmts, b.Raw("DO NOTHING").String())
				continue
			}

			sets := make([]string, len(update))
			for i, col := range update {
				sets[i] = ctx.Ident(col) + " = " + excluded + "." + ctx.Ident(col)
			}
			stmts = append(stmts, b.Raw("DO UPDATE SET").Raw(strings.Join(sets, ", ")).String())
		}
		return join(stmts), nil
	}
}
