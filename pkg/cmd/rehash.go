package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/urfave/cli/v3"
)

// rehash creates the command regenerating crossmigrate.sum for the migrations
// directory. Once a sum file exists, loading migrations fails whenever a file
// is edited, added or removed without rehashing.
//
// Example usage:
//
//	crossmigrate rehash
func rehash(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "rehash",
		Usage:  "Regenerate the sum file for all migrations",
		Before: requireConfig(cfg),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := os.Stat(cfg.Dir); os.IsNotExist(err) {
				return errors.Errorf("migrations directory does not exist: %s", cfg.Dir)
			}

			n, err := writeSum(cfg.Dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(output(cmd), "Successfully rehashed %d migration file(s) into %s\n", n, consts.DefaultSumFile)
			return nil
		},
	}
}
