package columnspec

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
)

var (
	specLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `'(?:[^']|'')*'`},
		{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
		{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[(),]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	parser = participle.MustBuild[spec](
		participle.Lexer(specLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(2),
	)

	aliases = map[string]change.DbType{
		"bool":        change.TypeBoolean,
		"smallint":    change.TypeInt16,
		"int":         change.TypeInt32,
		"integer":     change.TypeInt32,
		"bigint":      change.TypeInt64,
		"real":        change.TypeFloat,
		"varchar":     change.TypeString,
		"timestamp":   change.TypeDateTime,
		"timestamptz": change.TypeDateTimeOffset,
		"uuid":        change.TypeGUID,
	}

	systemMethods = map[string]change.SystemMethod{
		"now":          change.CurrentDateTime,
		"utc_now":      change.CurrentUTCDateTime,
		"new_guid":     change.NewGUID,
		"new_uuid":     change.NewGUID,
		"current_user": change.CurrentUser,
	}
)

type (
	spec struct {
		Name      string      `parser:"@(Ident | QuotedIdent)"`
		Type      typeSpec    `parser:"@@"`
		Modifiers []*modifier `parser:"@@*"`
	}

	typeSpec struct {
		Name string   `parser:"@Ident"`
		Args []string `parser:"( '(' @Number ( ',' @Number )* ')' )?"`
	}

	modifier struct {
		NotNull    bool   `parser:"  @( 'not' 'null' )"`
		Null       bool   `parser:"| @'null'"`
		PrimaryKey bool   `parser:"| @( 'primary' 'key' )"`
		Identity   bool   `parser:"| @'identity'"`
		Unique     bool   `parser:"| @'unique'"`
		Default    *value `parser:"| 'default' @@"`
	}

	value struct {
		Null   bool    `parser:"  @'null'"`
		True   bool    `parser:"| @'true'"`
		False  bool    `parser:"| @'false'"`
		String *string `parser:"| @String"`
		Number *string `parser:"| @Number"`
		Func   *string `parser:"| @Ident '(' ')'"`
	}
)

// Parse parses a compact column definition such as
//
//	name string(50) not null default 'anonymous'
//	id int64 primary key identity
//	created_at datetime default utc_now()
//
// Columns are NOT NULL unless marked null. Type names other than the known
// semantic types and their aliases are kept verbatim as vendor types.
func Parse(s string) (change.Column, error) {
	parsed, err := parser.ParseString("", s)
	if err != nil {
		return change.Column{}, errors.Wrapf(err, "parsing column %q", s)
	}

	typ, err := parsed.Type.dataType()
	if err != nil {
		return change.Column{}, errors.Wrapf(err, "parsing column %q", s)
	}

	col := change.NewColumn(unquote(parsed.Name, '"'), typ)
	for _, m := range parsed.Modifiers {
		switch {
		case m.NotNull:
			col = col.NotNull()
		case m.Null:
			col = col.Nullable()
		case m.PrimaryKey:
			col = col.PrimaryKey()
		case m.Identity:
			col = col.Identity()
		case m.Unique:
			col = col.Unique()
		case m.Default != nil:
			v, err := m.Default.resolve()
			if err != nil {
				return change.Column{}, errors.Wrapf(err, "parsing column %q", s)
			}
			col = col.Default(v)
		}
	}

	return col, nil
}

// MustParse is like Parse but panics on error. Intended for tests and static
// definitions.
func MustParse(s string) change.Column {
	col, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return col
}

func (t typeSpec) dataType() (change.DataType, error) {
	name := strings.ToLower(t.Name)
	dbType, ok := change.ParseDbType(name)
	if !ok {
		dbType, ok = aliases[name]
	}

	args := make([]int, len(t.Args))
	for i, a := range t.Args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return change.DataType{}, errors.Errorf("type %s: argument %q is not an integer", t.Name, a)
		}
		args[i] = n
	}

	if !ok {
		if len(t.Args) == 0 {
			return change.Custom(t.Name), nil
		}
		return change.Custom(t.Name + "(" + strings.Join(t.Args, ", ") + ")"), nil
	}

	dt := change.DataType{DbType: dbType}
	switch {
	case len(args) == 0:
	case dbType == change.TypeDecimal:
		dt.Precision = args[0]
		if len(args) > 1 {
			dt.Scale = args[1]
		}
	case len(args) == 1:
		dt.Size = args[0]
	default:
		return change.DataType{}, errors.Errorf("type %s takes at most one argument", t.Name)
	}

	return dt, nil
}

func (v *value) resolve() (any, error) {
	switch {
	case v.Null:
		return change.Null, nil
	case v.True:
		return true, nil
	case v.False:
		return false, nil
	case v.String != nil:
		return unquote(*v.String, '\''), nil
	case v.Number != nil:
		if strings.Contains(*v.Number, ".") {
			return strconv.ParseFloat(*v.Number, 64)
		}
		return strconv.ParseInt(*v.Number, 10, 64)
	default:
		m, ok := systemMethods[strings.ToLower(*v.Func)]
		if !ok {
			return nil, errors.Errorf("unknown default function %s()", *v.Func)
		}
		return m, nil
	}
}

func unquote(s string, q byte) string {
	if len(s) < 2 || s[0] != q || s[len(s)-1] != q {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], string(q)+string(q), string(q))
}
