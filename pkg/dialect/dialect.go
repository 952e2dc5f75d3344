package dialect

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
)

// Vendor identifies a database product.
type Vendor string

const (
	Generic    Vendor = "generic"
	Postgres   Vendor = "postgres"
	MySQL      Vendor = "mysql"
	SQLServer  Vendor = "sqlserver"
	SQLite     Vendor = "sqlite"
	ClickHouse Vendor = "clickhouse"
)

type (
	// Version is a dotted numeric product version. A nil Version means the
	// latest known version.
	Version []int

	// Dialect is a vendor at a specific version.
	Dialect struct {
		Vendor  Vendor
		Version Version
	}

	// Production generates SQL for one change kind. It may delegate to the
	// next lower layer through ctx.Next.
	Production func(ctx *Context, c change.Change) (string, error)

	// ColumnFunc renders a column definition.
	ColumnFunc func(ctx *Context, col change.Column) (string, error)

	// Override is one layer of a generator: the productions and settings that
	// diverge for a vendor (Version == "") or from a vendor version onwards.
	// Nil fields inherit from the layers below; maps are merged key by key.
	Override struct {
		Vendor        Vendor
		Version       string
		Quoter        *quote.Quoter
		Split         *splitter.Options
		Catalog       *oracle.Queries
		Types         TypeMap
		SystemMethods map[change.SystemMethod]string
		Features      []change.Feature
		Column        ColumnFunc
		Productions   map[change.Kind]Production
	}

	// Registry holds the overrides of every known vendor.
	Registry struct {
		base      Override
		overrides map[Vendor][]Override
	}
)

// ParseVersion parses a dotted version such as "9.5" or "2012". The empty
// string parses to nil (latest).
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ".")
	v := make(Version, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid version %q", s)
		}
		v[i] = n
	}

	return v, nil
}

// Compare returns -1, 0 or 1. Missing components compare as zero.
func (v Version) Compare(o Version) int {
	for i := 0; i < len(v) || i < len(o); i++ {
		var a, b int
		if i < len(v) {
			a = v[i]
		}
		if i < len(o) {
			b = o[i]
		}

		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}

	return 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) String() string {
	if len(d.Version) == 0 {
		return string(d.Vendor)
	}
	return string(d.Vendor) + " " + d.Version.String()
}

// NewRegistry creates a registry whose generators all start from base.
func NewRegistry(base Override) *Registry {
	return &Registry{base: base, overrides: make(map[Vendor][]Override)}
}

// Register adds an override layer. Registering a vendor default (empty
// Version) makes the vendor known.
func (r *Registry) Register(o Override) {
	r.overrides[o.Vendor] = append(r.overrides[o.Vendor], o)
}

// Vendors returns the known vendors in sorted order.
func (r *Registry) Vendors() []Vendor {
	vendors := make([]Vendor, 0, len(r.overrides))
	for v := range r.overrides {
		vendors = append(vendors, v)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i] < vendors[j] })
	return vendors
}

// Generator builds the generator for d by layering the base, the vendor
// default and every version override <= d.Version in ascending order.
func (r *Registry) Generator(d Dialect) (*Generator, error) {
	registered, ok := r.overrides[d.Vendor]
	if !ok {
		return nil, errors.Errorf("unknown dialect %q", d.Vendor)
	}

	type versioned struct {
		version Version
		o       Override
	}

	var defaults []Override
	var layers []versioned
	for _, o := range registered {
		if o.Version == "" {
			defaults = append(defaults, o)
			continue
		}

		v, err := ParseVersion(o.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "override for %s", o.Vendor)
		}

		if len(d.Version) == 0 || v.Compare(d.Version) <= 0 {
			layers = append(layers, versioned{version: v, o: o})
		}
	}

	sort.SliceStable(layers, func(i, j int) bool { return layers[i].version.Compare(layers[j].version) < 0 })

	stack := append([]Override{r.base}, defaults...)
	for _, l := range layers {
		stack = append(stack, l.o)
	}

	return newGenerator(d, stack), nil
}
