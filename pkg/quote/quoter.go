package quote

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentifierMode controls when identifiers are wrapped in quote characters.
type IdentifierMode int

const (
	// QuoteAlways wraps every identifier.
	QuoteAlways IdentifierMode = iota

	// QuoteWhenNeeded wraps only reserved words and names that are not plain
	// identifiers ([A-Za-z_][A-Za-z0-9_]*).
	QuoteWhenNeeded
)

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type (
	// Raw is a value that is emitted verbatim by QuoteValue. It is the explicit
	// opt-out from escaping and must never carry untrusted input.
	Raw string

	// Config describes how a dialect formats identifiers and literal values.
	Config struct {
		// OpenIdentifier and CloseIdentifier surround quoted identifiers
		OpenIdentifier  string
		CloseIdentifier string

		// Mode decides whether every identifier is quoted
		Mode IdentifierMode

		// ReservedWords are quoted even in QuoteWhenNeeded mode (upper case)
		ReservedWords map[string]struct{}

		// EscapeBackslashes doubles backslashes inside string literals
		EscapeBackslashes bool

		// StringPrefix is written before string literals (e.g. N for unicode literals)
		StringPrefix string

		// True and False are the boolean literals
		True  string
		False string

		// TimeLayout formats time.Time values before they are quoted as strings
		TimeLayout string

		// FormatBytes renders a binary literal from its lower-case hex encoding
		FormatBytes func(hexDigits string) string

		// FormatGUID renders a GUID literal from its canonical string form
		FormatGUID func(canonical string) string
	}

	// Quoter formats identifiers and values for one dialect. It is safe for
	// concurrent use and has no side effects.
	Quoter struct {
		cfg Config
	}
)

// New creates a Quoter from the given configuration, filling in ANSI defaults
// for anything left empty.
//
// Example:
//
//	q := quote.New(quote.Config{OpenIdentifier: "[", CloseIdentifier: "]"})
//	q.QuoteIdentifier("Order Details") // [Order Details]
func New(cfg Config) *Quoter {
	if cfg.OpenIdentifier == "" {
		cfg.OpenIdentifier = `"`
	}
	if cfg.CloseIdentifier == "" {
		cfg.CloseIdentifier = cfg.OpenIdentifier
	}
	if cfg.True == "" {
		cfg.True = "TRUE"
	}
	if cfg.False == "" {
		cfg.False = "FALSE"
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = "2006-01-02T15:04:05"
	}
	if cfg.FormatBytes == nil {
		cfg.FormatBytes = func(h string) string { return "X'" + h + "'" }
	}
	if cfg.FormatGUID == nil {
		cfg.FormatGUID = func(s string) string { return "'" + s + "'" }
	}
	if cfg.ReservedWords == nil {
		cfg.ReservedWords = ansiReserved
	}

	return &Quoter{cfg: cfg}
}

// QuoteIdentifier quotes a single identifier. Embedded close-quote characters
// are doubled so the name can never terminate the quoted region early. Names
// that are already quoted are returned unchanged.
//
// Examples (ANSI):
//   - "users" -> "\"users\""
//   - "weird\"name" -> "\"weird\"\"name\""
//   - "" -> ""
func (q *Quoter) QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if q.IsQuoted(name) {
		return name
	}

	if q.cfg.Mode == QuoteWhenNeeded && plainIdentifier.MatchString(name) && !q.IsReserved(name) {
		return name
	}

	escaped := strings.ReplaceAll(name, q.cfg.CloseIdentifier, q.cfg.CloseIdentifier+q.cfg.CloseIdentifier)
	return q.cfg.OpenIdentifier + escaped + q.cfg.CloseIdentifier
}

// QuoteQualified quotes a schema-qualified name. An empty schema yields only
// the quoted name.
//
// Examples (ANSI):
//   - ("app", "users") -> "\"app\".\"users\""
//   - ("", "users") -> "\"users\""
func (q *Quoter) QuoteQualified(schema, name string) string {
	if schema == "" {
		return q.QuoteIdentifier(name)
	}

	return q.QuoteIdentifier(schema) + "." + q.QuoteIdentifier(name)
}

// QuoteIdentifiers quotes every name and joins them with ", ".
func (q *Quoter) QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = q.QuoteIdentifier(name)
	}

	return strings.Join(quoted, ", ")
}

// IsQuoted reports whether s is a single identifier wrapped in this dialect's
// quote characters, with every inner close-quote character doubled.
func (q *Quoter) IsQuoted(s string) bool {
	open, closing := q.cfg.OpenIdentifier, q.cfg.CloseIdentifier
	if len(s) < len(open)+len(closing) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, closing) {
		return false
	}

	inner := s[len(open) : len(s)-len(closing)]
	return !strings.Contains(strings.ReplaceAll(inner, closing+closing, ""), closing)
}

// UnquoteIdentifier reverses QuoteIdentifier. Unquoted input is returned as-is,
// which allows round-tripping names returned by catalog introspection.
func (q *Quoter) UnquoteIdentifier(s string) string {
	if !q.IsQuoted(s) {
		return s
	}

	closing := q.cfg.CloseIdentifier
	inner := s[len(q.cfg.OpenIdentifier) : len(s)-len(closing)]
	return strings.ReplaceAll(inner, closing+closing, closing)
}

// IsReserved reports whether name is a reserved word for this dialect.
func (q *Quoter) IsReserved(name string) bool {
	_, ok := q.cfg.ReservedWords[strings.ToUpper(name)]
	return ok
}

// QuoteString produces an escaped string literal.
//
// Examples (ANSI):
//   - "it's" -> "'it''s'"
//   - "" -> "''"
func (q *Quoter) QuoteString(s string) string {
	if q.cfg.EscapeBackslashes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}

	return q.cfg.StringPrefix + "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteValue renders v as a SQL literal. Every string and byte value is escaped
// before it is concatenated into SQL text; only Raw bypasses escaping.
//
// Supported values:
//   - nil and nil pointers -> NULL
//   - string, fmt.Stringer (quoted as strings)
//   - bool -> dialect boolean literal
//   - signed/unsigned integers and floats
//   - time.Time -> dialect time layout, quoted
//   - []byte -> dialect hex literal
//   - uuid.UUID -> dialect GUID literal
//   - Raw -> verbatim
//
// Anything else is formatted with fmt.Sprint and quoted as a string.
func (q *Quoter) QuoteValue(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL"
		}
		return q.QuoteValue(rv.Elem().Interface())
	}

	switch val := v.(type) {
	case nil:
		return "NULL"
	case Raw:
		return string(val)
	case string:
		return q.QuoteString(val)
	case bool:
		if val {
			return q.cfg.True
		}
		return q.cfg.False
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return q.formatFloat(float64(val), 32)
	case float64:
		return q.formatFloat(val, 64)
	case time.Time:
		return q.QuoteString(val.Format(q.cfg.TimeLayout))
	case []byte:
		if val == nil {
			return "NULL"
		}
		return q.cfg.FormatBytes(hex.EncodeToString(val))
	case uuid.UUID:
		return q.cfg.FormatGUID(val.String())
	case fmt.Stringer:
		return q.QuoteString(val.String())
	}

	return q.QuoteString(fmt.Sprint(v))
}

func (q *Quoter) formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// Not representable as numeric literals; keep them as strings the driver can cast.
		return q.QuoteString(strconv.FormatFloat(f, 'g', -1, bits))
	}

	return strconv.FormatFloat(f, 'f', -1, bits)
}
