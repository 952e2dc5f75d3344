package oracle

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
)

// ErrUnsupported is returned when the dialect has no catalog for the requested
// object kind (e.g. sequences on MySQL).
var ErrUnsupported = errors.New("catalog query not supported by dialect")

type (
	// Prober runs an existence query: it reports whether query returns at
	// least one row.
	Prober interface {
		Exists(ctx context.Context, query string, args ...any) (bool, error)
	}

	// Queries holds the catalog query templates of one dialect. Templates use
	// the {schema}, {table} and {name} placeholders, which are replaced with
	// quoted string literals. An empty {schema} is replaced with CurrentSchema.
	// An empty template marks the query as unsupported.
	Queries struct {
		CurrentSchema string
		Schema        string
		Table         string
		Column        string
		Index         string
		Constraint    string
		Sequence      string
		DefaultValue  string
	}

	// Oracle answers existence questions about the live schema of a target
	// database. Answers are never cached: migration bodies may branch on state
	// that earlier statements of the same run changed.
	//
	// Example usage:
	//
	//	o := oracle.New(processor, quote.Postgres(), oracle.Postgres())
	//	exists, err := o.ColumnExists(ctx, "public", "users", "email")
	//	if err != nil {
	//		return err
	//	}
	//	if !exists {
	//		b.Add(&change.CreateColumn{Table: "users", Column: email})
	//	}
	Oracle struct {
		prober  Prober
		quoter  *quote.Quoter
		queries Queries
	}
)

// New creates an Oracle issuing queries through prober.
func New(prober Prober, quoter *quote.Quoter, queries Queries) *Oracle {
	return &Oracle{prober: prober, quoter: quoter, queries: queries}
}

func (o *Oracle) SchemaExists(ctx context.Context, schema string) (bool, error) {
	return o.exists(ctx, "SchemaExists", o.queries.Schema, schema, "", "")
}

func (o *Oracle) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return o.exists(ctx, "TableExists", o.queries.Table, schema, table, "")
}

func (o *Oracle) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	return o.exists(ctx, "ColumnExists", o.queries.Column, schema, table, column)
}

func (o *Oracle) IndexExists(ctx context.Context, schema, table, index string) (bool, error) {
	return o.exists(ctx, "IndexExists", o.queries.Index, schema, table, index)
}

func (o *Oracle) ConstraintExists(ctx context.Context, schema, table, constraint string) (bool, error) {
	return o.exists(ctx, "ConstraintExists", o.queries.Constraint, schema, table, constraint)
}

func (o *Oracle) SequenceExists(ctx context.Context, schema, sequence string) (bool, error) {
	return o.exists(ctx, "SequenceExists", o.queries.Sequence, schema, "", sequence)
}

// DefaultValueExists reports whether column has a default value (on SQL Server:
// a default constraint).
func (o *Oracle) DefaultValueExists(ctx context.Context, schema, table, column string) (bool, error) {
	return o.exists(ctx, "DefaultValueExists", o.queries.DefaultValue, schema, table, column)
}

// Render returns the SQL for tmpl with placeholders replaced by quoted literals.
func (q Queries) Render(quoter *quote.Quoter, tmpl, schema, table, name string) string {
	schemaExpr := q.CurrentSchema
	if schema != "" || schemaExpr == "" {
		schemaExpr = quoter.QuoteValue(schema)
	}

	return strings.NewReplacer(
		"{schema}", schemaExpr,
		"{table}", quoter.QuoteValue(table),
		"{name}", quoter.QuoteValue(name),
	).Replace(tmpl)
}

func (o *Oracle) exists(ctx context.Context, op, tmpl, schema, table, name string) (bool, error) {
	if tmpl == "" {
		return false, errors.Wrap(ErrUnsupported, op)
	}

	ok, err := o.prober.Exists(ctx, o.queries.Render(o.quoter, tmpl, schema, table, name))
	if err != nil {
		return false, errors.Wrapf(err, "%s(%s)", op, strings.Trim(strings.Join([]string{schema, table, name}, "."), "."))
	}

	return ok, nil
}
