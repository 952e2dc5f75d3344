package dialect

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
)

type (
	// TypeTemplate maps a DbType to SQL. Sized is used when the type carries a
	// size or precision and may reference $size, $precision and $scale. Default
	// is used otherwise. An empty template is not expressible.
	TypeTemplate struct {
		Default string
		Sized   string
	}

	// TypeMap maps semantic types to dialect types.
	TypeMap map[change.DbType]TypeTemplate
)

// Plain returns a template ignoring sizes.
func Plain(sql string) TypeTemplate {
	return TypeTemplate{Default: sql, Sized: sql}
}

// Sized returns a template using def without a size and sized with one.
func Sized(def, sized string) TypeTemplate {
	return TypeTemplate{Default: def, Sized: sized}
}

// Render returns the SQL type for t.
func (m TypeMap) Render(t change.DataType) (string, error) {
	if t.Custom != "" {
		return t.Custom, nil
	}

	tmpl, ok := m[t.DbType]
	if !ok {
		return "", errors.Errorf("type %s has no mapping", t.DbType)
	}

	sql := tmpl.Default
	if t.Size > 0 || t.Precision > 0 {
		sql = tmpl.Sized
	}

	if sql == "" {
		return "", errors.Errorf("type %s has no mapping", t)
	}

	return strings.NewReplacer(
		"$size", strconv.Itoa(t.Size),
		"$precision", strconv.Itoa(t.Precision),
		"$scale", strconv.Itoa(t.Scale),
	).Replace(sql), nil
}
