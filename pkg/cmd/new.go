package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/urfave/cli/v3"
)

const versionLayout = "20060102150405"

var (
	now = time.Now

	nonWord = regexp.MustCompile(`[^a-z0-9]+`)
)

const sqlUpTemplate = `-- %s
--
-- Add "-- migrate:no-transaction" or "-- migrate:breaking" on the lines above
-- to change how this migration runs.

`

const sqlDownTemplate = `-- Revert: %s

`

const yamlTemplate = `description: %q
transaction: automatic
up: []
# up:
#   - create_table:
#       name: users
#       columns:
#         - id int64 primary key identity
#         - email string(255) unique
#   - create_index:
#       name: ix_users_email
#       table: users
#       columns: [email]
`

// newCmd creates the command generating timestamped migration files.
//
// SQL migrations get an .up.sql and a .down.sql file. With --yaml a single
// declarative file is created instead; its down direction is derived from
// the up changes. The sum file is refreshed when the project has one.
//
// Example usage:
//
//	crossmigrate new "create users"
//	crossmigrate new --yaml "add email index"
func newCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new migration",
		ArgsUsage: "<description>",
		Before:    requireConfig(cfg),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "create a declarative YAML migration",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			description := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			slug := strings.Trim(nonWord.ReplaceAllString(strings.ToLower(description), "_"), "_")
			if slug == "" {
				return errors.New("a migration description is required")
			}

			if err := os.MkdirAll(cfg.Dir, consts.ModeDir); err != nil {
				return errors.Wrap(err, "failed to create migrations directory")
			}

			base := filepath.Join(cfg.Dir, now().UTC().Format(versionLayout)+"_"+slug)
			files := map[string]string{
				base + ".up.sql":   fmt.Sprintf(sqlUpTemplate, description),
				base + ".down.sql": fmt.Sprintf(sqlDownTemplate, description),
			}
			if cmd.Bool("yaml") {
				files = map[string]string{base + ".yaml": fmt.Sprintf(yamlTemplate, description)}
			}

			for _, path := range sortedKeys(files) {
				if _, err := os.Stat(path); err == nil {
					return errors.Errorf("migration already exists: %s", path)
				}
				if err := os.WriteFile(path, []byte(files[path]), consts.ModeFile); err != nil {
					return errors.Wrapf(err, "failed to write migration: %s", path)
				}
				fmt.Fprintf(output(cmd), "Created %s\n", path)
			}

			if _, err := os.Stat(filepath.Join(cfg.Dir, consts.DefaultSumFile)); err == nil {
				if _, err := writeSum(cfg.Dir); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
