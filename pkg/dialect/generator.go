package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
)

type (
	// Generator turns change descriptors into SQL for one dialect. Generators
	// are immutable and safe for concurrent use.
	//
	// Example usage:
	//
	//	gen, err := dialect.New(dialect.Postgres, "11")
	//	if err != nil {
	//		return err
	//	}
	//
	//	sql, err := gen.Generate(&change.CreateTable{Table: "users", Columns: cols})
	//	if err != nil {
	//		var cerr *dialect.CompatibilityError
	//		if errors.As(err, &cerr) {
	//			// the dialect cannot express the change
	//		}
	//		return err
	//	}
	Generator struct {
		dialect       Dialect
		quoter        *quote.Quoter
		split         splitter.Options
		catalog       oracle.Queries
		types         TypeMap
		systemMethods map[change.SystemMethod]string
		features      map[change.Feature]struct{}
		column        ColumnFunc
		layers        []map[change.Kind]Production
		oracle        *oracle.Oracle
	}

	// Context is the immutable state handed to a production. It gives access
	// to the dialect's quoting, type mapping and (optionally) the schema oracle,
	// and lets the production delegate to the layer below it.
	Context struct {
		ctx   context.Context
		gen   *Generator
		layer int
		kind  change.Kind
	}
)

func newGenerator(d Dialect, stack []Override) *Generator {
	g := &Generator{
		dialect:       d,
		quoter:        quote.ANSI(),
		split:         splitter.Default(),
		catalog:       oracle.ANSI(),
		types:         make(TypeMap),
		systemMethods: make(map[change.SystemMethod]string),
		features:      make(map[change.Feature]struct{}),
	}

	for _, o := range stack {
		if o.Quoter != nil {
			g.quoter = o.Quoter
		}
		if o.Split != nil {
			g.split = *o.Split
		}
		if o.Catalog != nil {
			g.catalog = *o.Catalog
		}
		if o.Column != nil {
			g.column = o.Column
		}
		for k, v := range o.Types {
			g.types[k] = v
		}
		for k, v := range o.SystemMethods {
			g.systemMethods[k] = v
		}
		for _, f := range o.Features {
			g.features[f] = struct{}{}
		}

		g.layers = append(g.layers, o.Productions)
	}

	return g
}

func (g *Generator) Dialect() Dialect { return g.dialect }

func (g *Generator) Quoter() *quote.Quoter { return g.quoter }

// SplitOptions returns the statement splitter options for generated and raw
// SQL of this dialect.
func (g *Generator) SplitOptions() splitter.Options { return g.split }

// Catalog returns the dialect's schema catalog queries.
func (g *Generator) Catalog() oracle.Queries { return g.catalog }

// SupportsFeature reports whether the dialect understands the named vendor
// feature. Migrations consult it before attaching features to a change.
func (g *Generator) SupportsFeature(name change.Feature) bool {
	_, ok := g.features[name]
	return ok
}

// Oracle returns a schema oracle for this dialect querying through prober.
func (g *Generator) Oracle(prober oracle.Prober) *oracle.Oracle {
	return oracle.New(prober, g.quoter, g.catalog)
}

// WithOracle returns a copy of g whose productions may consult o.
func (g *Generator) WithOracle(o *oracle.Oracle) *Generator {
	cp := *g
	cp.oracle = o
	return &cp
}

// Generate returns the SQL for c. See GenerateContext.
func (g *Generator) Generate(c change.Change) (string, error) {
	return g.GenerateContext(context.Background(), c)
}

// GenerateContext validates c and returns its SQL. The result may hold
// several statements and is meant to be passed through the dialect's
// splitter. Perform changes produce no SQL.
//
// Validation failures return a *change.ValidationError; changes the dialect
// cannot express return a *CompatibilityError.
func (g *Generator) GenerateContext(ctx context.Context, c change.Change) (string, error) {
	if err := change.Validate(c); err != nil {
		return "", err
	}

	if err := g.checkFeatures(c); err != nil {
		return "", err
	}

	return g.produce(ctx, len(g.layers), c)
}

func (g *Generator) produce(ctx context.Context, below int, c change.Change) (string, error) {
	for i := below - 1; i >= 0; i-- {
		if p, ok := g.layers[i][c.Kind()]; ok {
			return p(&Context{ctx: ctx, gen: g, layer: i, kind: c.Kind()}, c)
		}
	}

	return "", &CompatibilityError{Dialect: g.dialect, Kind: c.Kind(), Reason: "no production"}
}

func (g *Generator) checkFeatures(c change.Change) error {
	var features change.Features
	switch c := c.(type) {
	case *change.CreateTable:
		features = c.Features
	case *change.CreateIndex:
		features = c.Index.Features
	default:
		return nil
	}

	for _, f := range features.Names() {
		if !g.SupportsFeature(f) {
			return &CompatibilityError{Dialect: g.dialect, Kind: c.Kind(), Reason: fmt.Sprintf("feature %q is not supported", f)}
		}
	}

	return nil
}

// Ctx returns the context of the generation request.
func (c *Context) Ctx() context.Context { return c.ctx }

func (c *Context) Dialect() Dialect { return c.gen.dialect }

func (c *Context) Quoter() *quote.Quoter { return c.gen.quoter }

// Oracle returns the schema oracle, or nil when generating offline.
func (c *Context) Oracle() *oracle.Oracle { return c.gen.oracle }

func (c *Context) Supports(f change.Feature) bool { return c.gen.SupportsFeature(f) }

// Next generates ch with the first production below the current layer.
func (c *Context) Next(ch change.Change) (string, error) {
	return c.gen.produce(c.ctx, c.layer, ch)
}

// Generate generates a nested change from the top layer.
func (c *Context) Generate(ch change.Change) (string, error) {
	return c.gen.produce(c.ctx, len(c.gen.layers), ch)
}

// Unsupported returns a CompatibilityError for the change being generated.
func (c *Context) Unsupported(format string, args ...any) error {
	return &CompatibilityError{Dialect: c.gen.dialect, Kind: c.kind, Reason: fmt.Sprintf(format, args...)}
}

// SQL starts a statement builder using the dialect's quoter.
func (c *Context) SQL() *Builder { return NewBuilder(c.gen.quoter) }

func (c *Context) Ident(name string) string { return c.gen.quoter.QuoteIdentifier(name) }

func (c *Context) Idents(names []string) string { return c.gen.quoter.QuoteIdentifiers(names) }

func (c *Context) Table(schema, name string) string { return c.gen.quoter.QuoteQualified(schema, name) }

// Value renders v as a literal. SystemMethod values are rendered with the
// dialect's expression for the method.
func (c *Context) Value(v any) (string, error) {
	switch v := v.(type) {
	case change.SystemMethod:
		expr := c.gen.systemMethods[v]
		if expr == "" {
			return "", c.Unsupported("default %s is not supported", v)
		}
		return expr, nil
	default:
		if change.IsNull(v) {
			return "NULL", nil
		}
		return c.gen.quoter.QuoteValue(v), nil
	}
}

// Values renders each value of vals joined by ", ".
func (c *Context) Values(vals []any) (string, error) {
	out := make([]string, len(vals))
	for i, v := range vals {
		s, err := c.Value(v)
		if err != nil {
			return "", err
		}
		out[i] = s
	}
	return strings.Join(out, ", "), nil
}

// Type maps t to the dialect's SQL type.
func (c *Context) Type(t change.DataType) (string, error) {
	s, err := c.gen.types.Render(t)
	if err != nil {
		return "", c.Unsupported("%s", err)
	}
	return s, nil
}

// Column renders a column definition.
func (c *Context) Column(col change.Column) (string, error) {
	if c.gen.column == nil {
		return "", errors.New("dialect has no column renderer")
	}
	return c.gen.column(c, col)
}
