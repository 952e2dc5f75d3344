package splitter

import "log/slog"

type (
	// Delimiter is an opening/closing pair for quoted identifiers.
	Delimiter struct {
		Open  string
		Close string
	}

	// Options describes the structural syntax of one dialect's SQL scripts.
	Options struct {
		// Terminator ends a statement outside strings, comments and blocks. Zero
		// disables terminator splitting (batches are then only split on
		// BatchSeparator lines).
		Terminator byte

		// BatchSeparator is a client-side token that, alone on a line and
		// optionally followed by a repeat count, ends the current batch (e.g. GO).
		BatchSeparator string

		// LineComments are tokens starting a comment that runs to end of line
		LineComments []string

		// BlockComments enables /* ... */ comments
		BlockComments bool

		// NestedBlockComments allows /* /* */ */ nesting
		NestedBlockComments bool

		// StringQuotes are the characters opening string literals
		StringQuotes string

		// IdentifierQuotes are the quoted-identifier delimiters
		IdentifierQuotes []Delimiter

		// BackslashEscapes treats \ as an escape character inside strings
		BackslashEscapes bool

		// EscapeStringPrefix treats E'...' literals as backslash-escaped strings
		EscapeStringPrefix bool

		// DollarQuotes enables $$...$$ and $tag$...$tag$ string bodies
		DollarQuotes bool

		// ProceduralBlocks enables BEGIN ... END block tracking
		ProceduralBlocks bool

		// DeclarationSections treats DECLARE and CREATE ... AS|IS as opening a
		// declaration section whose terminators belong to the enclosing block
		DeclarationSections bool

		// KeepBlockTerminator keeps the terminator after a procedural block's
		// final END as part of the statement
		KeepBlockTerminator bool

		// Logger receives structural warnings. Defaults to slog.Default().
		Logger *slog.Logger
	}
)

// Default returns options for ANSI SQL with PL/SQL style procedural blocks.
func Default() Options {
	return Options{
		Terminator:          ';',
		LineComments:        []string{"--"},
		BlockComments:       true,
		StringQuotes:        "'",
		IdentifierQuotes:    []Delimiter{{Open: `"`, Close: `"`}},
		ProceduralBlocks:    true,
		DeclarationSections: true,
		KeepBlockTerminator: true,
	}
}

// Oracle returns Default options with the SQL*Plus "/" batch separator.
func Oracle() Options {
	opts := Default()
	opts.BatchSeparator = "/"
	return opts
}

// Postgres returns options for PostgreSQL scripts. Function bodies are dollar
// quoted, so no keyword based block tracking is needed.
func Postgres() Options {
	return Options{
		Terminator:          ';',
		LineComments:        []string{"--"},
		BlockComments:       true,
		NestedBlockComments: true,
		StringQuotes:        "'",
		IdentifierQuotes:    []Delimiter{{Open: `"`, Close: `"`}},
		EscapeStringPrefix:  true,
		DollarQuotes:        true,
	}
}

// MySQL returns options for MySQL/MariaDB scripts.
func MySQL() Options {
	return Options{
		Terminator:       ';',
		LineComments:     []string{"--", "#"},
		BlockComments:    true,
		StringQuotes:     `'"`,
		IdentifierQuotes: []Delimiter{{Open: "`", Close: "`"}},
		BackslashEscapes: true,
		ProceduralBlocks: true,
	}
}

// SQLServer returns options for T-SQL scripts: batches are split only on GO
// lines, since a batch is sent to the server as a single request.
func SQLServer() Options {
	return Options{
		BatchSeparator:      "GO",
		LineComments:        []string{"--"},
		BlockComments:       true,
		NestedBlockComments: true,
		StringQuotes:        "'",
		IdentifierQuotes:    []Delimiter{{Open: `"`, Close: `"`}, {Open: "[", Close: "]"}},
	}
}

// SQLite returns options for SQLite scripts. Trigger bodies are BEGIN ... END blocks.
func SQLite() Options {
	return Options{
		Terminator:          ';',
		LineComments:        []string{"--"},
		BlockComments:       true,
		StringQuotes:        "'",
		IdentifierQuotes:    []Delimiter{{Open: `"`, Close: `"`}, {Open: "`", Close: "`"}, {Open: "[", Close: "]"}},
		ProceduralBlocks:    true,
		KeepBlockTerminator: true,
	}
}

// ClickHouse returns options for ClickHouse scripts.
func ClickHouse() Options {
	return Options{
		Terminator:       ';',
		LineComments:     []string{"--", "#"},
		BlockComments:    true,
		StringQuotes:     "'",
		IdentifierQuotes: []Delimiter{{Open: "`", Close: "`"}, {Open: `"`, Close: `"`}},
		BackslashEscapes: true,
	}
}
