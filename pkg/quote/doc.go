// Package quote provides dialect-safe formatting of SQL identifiers and literal
// values.
//
// Every piece of user-supplied text that ends up in generated SQL passes through a
// Quoter: identifiers are wrapped in the dialect's quote characters with embedded
// close-quotes doubled, and values are rendered as escaped literals. This makes it
// structurally impossible for a table name or a row value to break out of its
// quoted region.
//
// # Presets
//
// The package ships quoters for the supported dialects:
//
//	quote.ANSI().QuoteIdentifier("users")          // "users"
//	quote.MySQL().QuoteIdentifier("users")         // `users`
//	quote.SQLServer().QuoteIdentifier("users")     // [users]
//	quote.SQLServer().QuoteValue("O'Brien")        // N'O''Brien'
//	quote.MySQL().QuoteValue(`C:\temp`)            // 'C:\\temp'
//	quote.Postgres().QuoteValue([]byte{0xde, 0xad}) // '\xdead'::bytea
//
// # Values
//
// QuoteValue understands nil, strings, booleans, numbers, time.Time, []byte and
// uuid.UUID values. The Raw type is emitted verbatim and exists for SQL
// expressions authored by the migration writer (never for data).
//
// # Round-tripping
//
// UnquoteIdentifier reverses QuoteIdentifier so names read back from catalog
// queries can be compared with names used in migrations.
package quote
