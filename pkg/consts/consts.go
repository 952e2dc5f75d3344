package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the project configuration file looked up in the working directory
	DefaultConfigFile = "crossmigrate.yaml"

	// DefaultMigrationsDir is where migration sources live when the config doesn't say otherwise
	DefaultMigrationsDir = "db/migrations"

	// DefaultSumFile holds the checksums of the migration files in the migrations directory
	DefaultSumFile = "crossmigrate.sum"

	// DefaultProvider is the dialect used when the config doesn't name one
	DefaultProvider = "generic"

	// DefaultLedgerTable is the name of the table recording applied versions
	DefaultLedgerTable = "schema_versions"


	// LedgerVersionColumn stores the applied migration version
	LedgerVersionColumn = "version"

	// LedgerAppliedAtColumn stores the UTC time at which the version was applied
	LedgerAppliedAtColumn = "applied_at"

	// LedgerDescriptionColumn stores the migration description
	LedgerDescriptionColumn = "description"

	// LedgerDescriptionSize is the maximum stored description length
	LedgerDescriptionSize = 1024
)
