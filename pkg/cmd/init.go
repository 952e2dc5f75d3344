package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// initCmd creates the command initializing a project: a crossmigrate.yaml
// config and an empty migrations directory. Existing files are left alone, so
// running it twice is harmless.
//
// Example usage:
//
//	crossmigrate init --provider postgres --dsn '${DATABASE_URL}'
//	crossmigrate init --path ./service --provider sqlite --dsn app.db
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a project in the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "the project directory",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "the SQL dialect to generate",
				Value: consts.DefaultProvider,
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "the database driver (defaults to the provider's)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "the connection string; environment references are expanded at load time",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.String("path")

			cfg := &config.Config{
				Provider:      cmd.String("provider"),
				Target:        config.Target{Driver: cmd.String("driver"), DSN: cmd.String("dsn")},
				Dir:           consts.DefaultMigrationsDir,
				Ledger:        config.Ledger{Table: consts.DefaultLedgerTable},
				Compatibility: config.Strict,
				Ordering:      config.Loose,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Join(root, cfg.Dir), consts.ModeDir); err != nil {
				return errors.Wrap(err, "failed to create migrations directory")
			}

			path := filepath.Join(root, consts.DefaultConfigFile)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(output(cmd), "%s already exists, leaving it untouched\n", path)
				return nil
			}

			if err := writeConfig(path, cfg); err != nil {
				return err
			}

			fmt.Fprintf(output(cmd), "Initialized project in %s\n", root)
			return nil
		},
	}
}

func writeConfig(path string, cfg *config.Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return errors.Wrapf(err, "failed to create file: %s", path)
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return enc.Close()
}
