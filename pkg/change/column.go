package change

import "fmt"

// DbType is a dialect independent column type.
type DbType string

const (
	TypeBoolean        DbType = "boolean"
	TypeInt16          DbType = "int16"
	TypeInt32          DbType = "int32"
	TypeInt64          DbType = "int64"
	TypeDecimal        DbType = "decimal"
	TypeFloat          DbType = "float"
	TypeDouble         DbType = "double"
	TypeString         DbType = "string"
	TypeAnsiString     DbType = "ansistring"
	TypeText           DbType = "text"
	TypeBinary         DbType = "binary"
	TypeDate           DbType = "date"
	TypeTime           DbType = "time"
	TypeDateTime       DbType = "datetime"
	TypeDateTimeOffset DbType = "datetimeoffset"
	TypeGUID           DbType = "guid"
)

var knownTypes = map[DbType]struct{}{
	TypeBoolean: {}, TypeInt16: {}, TypeInt32: {}, TypeInt64: {}, TypeDecimal: {},
	TypeFloat: {}, TypeDouble: {}, TypeString: {}, TypeAnsiString: {}, TypeText: {},
	TypeBinary: {}, TypeDate: {}, TypeTime: {}, TypeDateTime: {}, TypeDateTimeOffset: {},
	TypeGUID: {},
}

// ParseDbType returns the DbType named s.
func ParseDbType(s string) (DbType, bool) {
	t := DbType(s)
	_, ok := knownTypes[t]
	return t, ok
}

// SystemMethod is a default value computed by the database.
type SystemMethod int

const (
	CurrentDateTime SystemMethod = iota + 1
	CurrentUTCDateTime
	NewGUID
	CurrentUser
)

func (m SystemMethod) String() string {
	switch m {
	case CurrentDateTime:
		return "CurrentDateTime"
	case CurrentUTCDateTime:
		return "CurrentUTCDateTime"
	case NewGUID:
		return "NewGuid"
	case CurrentUser:
		return "CurrentUser"
	default:
		return fmt.Sprintf("SystemMethod(%d)", int(m))
	}
}

type nullValue struct{}

func (nullValue) String() string { return "NULL" }

// Null is an explicit NULL default value. A nil default means "no default".
var Null any = nullValue{}

// IsNull reports whether v is the Null default.
func IsNull(v any) bool {
	_, ok := v.(nullValue)
	return ok
}

type (
	// DataType is a semantic column type, optionally sized. Custom holds a
	// vendor specific type emitted verbatim instead of a mapped DbType.
	DataType struct {
		DbType    DbType
		Size      int
		Precision int
		Scale     int
		Custom    string
	}

	// Column defines a table column. Columns are built fluently:
	//
	//	change.NewColumn("Id", change.Int32()).PrimaryKey().Identity()
	//	change.NewColumn("Name", change.String(50)).Default("anonymous")
	//	change.NewColumn("Bio", change.Text()).Nullable()
	Column struct {
		Name           string
		Type           DataType
		IsNullable     bool
		DefaultValue   any
		IsIdentity     bool
		IsPrimaryKey   bool
		PrimaryKeyName string
		IsUnique       bool
	}
)

func Boolean() DataType            { return DataType{DbType: TypeBoolean} }
func Int16() DataType              { return DataType{DbType: TypeInt16} }
func Int32() DataType              { return DataType{DbType: TypeInt32} }
func Int64() DataType              { return DataType{DbType: TypeInt64} }
func Float() DataType              { return DataType{DbType: TypeFloat} }
func Double() DataType             { return DataType{DbType: TypeDouble} }
func String(size int) DataType     { return DataType{DbType: TypeString, Size: size} }
func AnsiString(size int) DataType { return DataType{DbType: TypeAnsiString, Size: size} }
func Text() DataType               { return DataType{DbType: TypeText} }
func Binary(size int) DataType     { return DataType{DbType: TypeBinary, Size: size} }
func Date() DataType               { return DataType{DbType: TypeDate} }
func Time() DataType               { return DataType{DbType: TypeTime} }
func DateTime() DataType           { return DataType{DbType: TypeDateTime} }
func DateTimeOffset() DataType     { return DataType{DbType: TypeDateTimeOffset} }
func GUID() DataType               { return DataType{DbType: TypeGUID} }
func Custom(sql string) DataType   { return DataType{Custom: sql} }
func Decimal(precision, scale int) DataType {
	return DataType{DbType: TypeDecimal, Precision: precision, Scale: scale}
}

// IsInteger reports whether the type is an integral DbType.
func (t DataType) IsInteger() bool {
	return t.DbType == TypeInt16 || t.DbType == TypeInt32 || t.DbType == TypeInt64
}

func (t DataType) String() string {
	switch {
	case t.Custom != "":
		return t.Custom
	case t.DbType == TypeDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case t.Size > 0:
		return fmt.Sprintf("%s(%d)", t.DbType, t.Size)
	default:
		return string(t.DbType)
	}
}

// NewColumn returns a NOT NULL column with no default.
func NewColumn(name string, t DataType) Column {
	return Column{Name: name, Type: t}
}

func (c Column) Nullable() Column {
	c.IsNullable = true
	return c
}

func (c Column) NotNull() Column {
	c.IsNullable = false
	return c
}

// Default sets the default value: a literal, Null, or a SystemMethod.
func (c Column) Default(v any) Column {
	c.DefaultValue = v
	return c
}

// PrimaryKey marks the column as (part of) the primary key. Primary key
// columns are never nullable.
func (c Column) PrimaryKey() Column {
	c.IsPrimaryKey = true
	c.IsNullable = false
	return c
}

// NamedPrimaryKey is PrimaryKey with an explicit constraint name.
func (c Column) NamedPrimaryKey(name string) Column {
	c = c.PrimaryKey()
	c.PrimaryKeyName = name
	return c
}

func (c Column) Identity() Column {
	c.IsIdentity = true
	return c
}

func (c Column) Unique() Column {
	c.IsUnique = true
	return c
}

func (c Column) validate() []Violation {
	var v violations
	v.required("name", c.Name)

	t := c.Type
	switch {
	case t.Custom != "":
	case t.DbType == "":
		v.add("type", "is required")
	default:
		if _, ok := knownTypes[t.DbType]; !ok {
			v.add("type", "unknown type %q", t.DbType)
		}
	}

	if t.Size < 0 {
		v.add("type.size", "must not be negative")
	}

	if t.DbType == TypeDecimal {
		if t.Precision <= 0 {
			v.add("type.precision", "must be positive")
		}
		if t.Scale < 0 || t.Scale > t.Precision {
			v.add("type.scale", "must be between 0 and the precision")
		}
	}

	if c.IsIdentity && t.Custom == "" && !t.IsInteger() {
		v.add("identity", "requires an integer type, got %s", t)
	}

	if IsNull(c.DefaultValue) && !c.IsNullable {
		v.add("default", "NULL default on a NOT NULL column")
	}

	if c.IsIdentity && c.DefaultValue != nil {
		v.add("default", "identity columns cannot have a default")
	}

	return v
}
