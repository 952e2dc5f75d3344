// Package cmd provides the CLI commands of the crossmigrate tool.
//
// # Available Commands
//
//   - init: create crossmigrate.yaml and the migrations directory
//   - new: create timestamped SQL or YAML migration files
//   - up: apply pending migrations
//   - down: revert applied migrations newer than a version
//   - rollback: revert the last N applied migrations
//   - status: list versions and whether they are applied
//   - rehash: regenerate crossmigrate.sum
//
// # Command Structure
//
// Each command is a constructor returning a *cli.Command. Constructors take
// the loaded *config.Config (nil when the project has no config file) and are
// registered in the "commands" fx group by Module. Run assembles the root
// command from the group.
//
// # Configuration
//
// Commands talking to a database read the provider, target and ledger
// settings from crossmigrate.yaml. The --dsn flag (or CROSSMIGRATE_DSN)
// overrides the configured connection string and --preview prints the SQL
// that would run without executing it.
package cmd
