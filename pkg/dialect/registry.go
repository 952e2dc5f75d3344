package dialect

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	builtinOnce sync.Once
	builtinReg  *Registry
)

// Builtin returns the registry of every vendor shipped with this package.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtinReg = NewRegistry(Base())
		builtinReg.Register(Override{Vendor: Generic})

		for _, overrides := range [][]Override{
			postgresOverrides(),
			mysqlOverrides(),
			sqlServerOverrides(),
			sqliteOverrides(),
			clickHouseOverrides(),
		} {
			for _, o := range overrides {
				builtinReg.Register(o)
			}
		}
	})

	return builtinReg
}

// New returns the builtin generator for vendor at version. An empty version
// selects the latest behavior.
func New(vendor Vendor, version string) (*Generator, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}

	gen, err := Builtin().Generator(Dialect{Vendor: vendor, Version: v})
	if err != nil {
		return nil, errors.Wrap(err, "creating generator")
	}

	return gen, nil
}

// Vendors lists the builtin vendors.
func Vendors() []Vendor {
	return Builtin().Vendors()
}
