package dialect

import (
	"strings"

	"github.com/pseudomuto/crossmigrate/pkg/quote"
)

// Builder provides a fluent interface for building DDL and DML statements.
// Identifiers and values are always passed through the dialect's Quoter.
//
// Example usage:
//
//	sql := dialect.NewBuilder(quote.Postgres()).
//		Drop("TABLE").
//		Qualified("app", "users").
//		String()
//	// Output: DROP TABLE "app"."users";
type Builder struct {
	q     *quote.Quoter
	parts []string
}

// NewBuilder creates a new Builder quoting with q.
func NewBuilder(q *quote.Quoter) *Builder {
	return &Builder{q: q, parts: make([]string, 0, 10)}
}

// Create adds a CREATE clause with the specified object type.
//
// Example:
//
//	builder.Create("TABLE")         // CREATE TABLE
//	builder.Create("UNIQUE INDEX")  // CREATE UNIQUE INDEX
func (b *Builder) Create(objectType string) *Builder {
	b.parts = append(b.parts, "CREATE", objectType)
	return b
}

// Drop adds a DROP clause with the specified object type.
func (b *Builder) Drop(objectType string) *Builder {
	b.parts = append(b.parts, "DROP", objectType)
	return b
}

// Alter adds an ALTER clause with the specified object type.
func (b *Builder) Alter(objectType string) *Builder {
	b.parts = append(b.parts, "ALTER", objectType)
	return b
}

// Name adds a quoted identifier.
//
// Example:
//
//	builder.Name("users")  // "users"
func (b *Builder) Name(name string) *Builder {
	if name != "" {
		b.parts = append(b.parts, b.q.QuoteIdentifier(name))
	}
	return b
}

// Qualified adds a schema qualified, quoted name. An empty schema adds the
// name alone.
//
// Example:
//
//	builder.Qualified("", "users")     // "users"
//	builder.Qualified("app", "users")  // "app"."users"
func (b *Builder) Qualified(schema, name string) *Builder {
	if name != "" {
		b.parts = append(b.parts, b.q.QuoteQualified(schema, name))
	}
	return b
}

// Names adds a parenthesized, comma separated list of quoted identifiers.
//
// Example:
//
//	builder.Names([]string{"a", "b"})  // ("a", "b")
func (b *Builder) Names(names []string) *Builder {
	b.parts = append(b.parts, "("+b.q.QuoteIdentifiers(names)+")")
	return b
}

// To adds a TO clause for rename operations.
func (b *Builder) To(name string) *Builder {
	if name != "" {
		b.parts = append(b.parts, "TO", b.q.QuoteIdentifier(name))
	}
	return b
}

// Engine adds an ENGINE clause.
//
// Example:
//
//	builder.Engine("MergeTree()")  // ENGINE = MergeTree()
func (b *Builder) Engine(engine string) *Builder {
	if engine != "" {
		b.parts = append(b.parts, "ENGINE", "=", engine)
	}
	return b
}

// Raw adds raw SQL text to the builder. Use it for keywords and for fragments
// that were already quoted.
func (b *Builder) Raw(sql string) *Builder {
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// String builds the final statement terminated by a semicolon.
//
// Example:
//
//	sql := builder.Drop("TABLE").Name("users").String()
//	// Returns: DROP TABLE "users";
func (b *Builder) String() string {
	if len(b.parts) == 0 {
		return ""
	}
	return strings.Join(b.parts, " ") + ";"
}

// StringWithoutSemicolon builds the statement without a terminator. Useful for
// building parts of larger statements.
func (b *Builder) StringWithoutSemicolon() string {
	return strings.Join(b.parts, " ")
}
