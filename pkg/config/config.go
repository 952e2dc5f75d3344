package config

import (
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/pseudomuto/crossmigrate/pkg/processor"
	"gopkg.in/yaml.v3"
)

const (
	Strict = "strict"
	Loose  = "loose"
)

type (
	// Target describes the database migrations are applied to.
	Target struct {
		// Driver names the processor driver. Defaults to the provider's driver.
		Driver string `yaml:"driver,omitempty"`

		// DSN is the driver connection string. Environment references like
		// ${DATABASE_URL} are expanded when the config is loaded.
		DSN string `yaml:"dsn,omitempty"`

		// TLS configures client certificates for drivers that accept a
		// tls.Config (currently clickhouse).
		TLS *processor.TLSSettings `yaml:"tls,omitempty"`
	}

	// Ledger locates the version ledger table.
	Ledger struct {
		Schema string `yaml:"schema,omitempty"`
		Table  string `yaml:"table,omitempty"`
	}

	// Config represents a crossmigrate.yaml project file.
	Config struct {
		// Provider selects the SQL dialect migrations are generated for.
		Provider string `yaml:"provider"`

		// Version is the target server version, e.g. "16" or "2019". Empty
		// selects the latest dialect behavior.
		Version string `yaml:"version,omitempty"`

		Target Target `yaml:"target"`

		// Dir is the directory holding migration sources.
		Dir string `yaml:"dir"`

		Ledger Ledger `yaml:"ledger"`

		// Compatibility is "strict" (the default) to fail on changes the
		// dialect cannot express, or "loose" to skip them with a warning.
		Compatibility string `yaml:"compatibility,omitempty"`

		// Ordering is "loose" (the default) to warn about out of order
		// versions, or "strict" to refuse to run.
		Ordering string `yaml:"ordering,omitempty"`

		// Preview announces statements without executing them.
		Preview bool `yaml:"preview,omitempty"`
	}
)

var providerDrivers = map[dialect.Vendor]string{
	dialect.Postgres:   "postgres",
	dialect.MySQL:      "mysql",
	dialect.SQLServer:  "sqlserver",
	dialect.SQLite:     "sqlite",
	dialect.ClickHouse: "clickhouse",
}

// LoadConfig parses a project configuration from r, applies defaults and
// validates the result.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	provider: postgres
//	target:
//	  dsn: ${DATABASE_URL}
//	`))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Println(cfg.Dir) // db/migrations
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal project config")
	}

	cfg.setDefaults()
	cfg.Target.DSN = os.ExpandEnv(cfg.Target.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

func (c *Config) setDefaults() {
	if c.Provider == "" {
		c.Provider = consts.DefaultProvider
	}
	if c.Target.Driver == "" {
		c.Target.Driver = providerDrivers[dialect.Vendor(c.Provider)]
	}
	if c.Dir == "" {
		c.Dir = consts.DefaultMigrationsDir
	}
	if c.Ledger.Table == "" {
		c.Ledger.Table = consts.DefaultLedgerTable
	}
	if c.Compatibility == "" {
		c.Compatibility = Strict
	}
	if c.Ordering == "" {
		c.Ordering = Loose
	}
}

// Validate checks the provider, version, driver and strictness settings.
func (c *Config) Validate() error {
	if !slices.Contains(dialect.Vendors(), dialect.Vendor(c.Provider)) {
		return errors.Errorf("unknown provider %q (expected one of %v)", c.Provider, dialect.Vendors())
	}

	if _, err := dialect.ParseVersion(c.Version); err != nil {
		return errors.Wrapf(err, "invalid %s version", c.Provider)
	}

	if c.Target.Driver != "" && !slices.Contains(processor.Drivers(), c.Target.Driver) {
		return errors.Errorf("unknown driver %q (expected one of %v)", c.Target.Driver, processor.Drivers())
	}

	for name, v := range map[string]string{"compatibility": c.Compatibility, "ordering": c.Ordering} {
		if v != Strict && v != Loose {
			return errors.Errorf("%s must be %q or %q, got %q", name, Strict, Loose, v)
		}
	}

	return nil
}

// Generator returns the SQL generator for the configured provider and version.
func (c *Config) Generator() (*dialect.Generator, error) {
	return dialect.New(dialect.Vendor(c.Provider), c.Version)
}

// ProcessorOptions returns the options used to connect to the target.
func (c *Config) ProcessorOptions() processor.Options {
	return processor.Options{
		Driver: c.Target.Driver,
		DSN:    c.Target.DSN,
		TLS:    c.Target.TLS,
	}
}

// LooseCompatibility reports whether unsupported changes are skipped.
func (c *Config) LooseCompatibility() bool { return c.Compatibility == Loose }

// StrictOrdering reports whether out of order versions abort a run.
func (c *Config) StrictOrdering() bool { return c.Ordering == Strict }
