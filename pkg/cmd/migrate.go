package cmd

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/pseudomuto/crossmigrate/pkg/runner"
	"github.com/urfave/cli/v3"
)

// up creates the command applying pending migrations.
//
// Every pending version up to --target (all of them when unset) is applied in
// ascending order. Each migration runs in its own transaction together with its
// ledger entry unless it opts out with "-- migrate:no-transaction" or the
// target cannot do transactional DDL.
//
// Example usage:
//
//	# Apply everything
//	crossmigrate up
//
//	# Apply up to and including a version
//	crossmigrate up --target 20240102000000
//
//	# Print the SQL instead of running it
//	crossmigrate up --preview > plan.sql
func up(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "up",
		Aliases: []string{"migrate"},
		Usage:   "Apply pending migrations",
		Before:  requireConfig(cfg),
		Flags: append(targetFlags(),
			&cli.Int64Flag{
				Name:  "target",
				Usage: "the last version to apply (default: latest)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return migrateWith(cmd, cfg, func(r *runner.Runner, ms []*migration.Migration) (*runner.Report, error) {
				return r.Up(ctx, ms, cmd.Int64("target"))
			})
		},
	}
}

// down creates the command reverting applied migrations above a version.
//
// Migrations without a down body are reverted by inverting their up changes;
// raw SQL and callbacks cannot be inverted and need an explicit .down.sql
// file.
//
// Example usage:
//
//	# Revert everything applied after 20240101000000
//	crossmigrate down --to 20240101000000
//
//	# Revert every migration
//	crossmigrate down --to 0
func down(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "down",
		Usage:  "Revert applied migrations newer than a version",
		Before: requireConfig(cfg),
		Flags: append(targetFlags(),
			&cli.Int64Flag{
				Name:     "to",
				Usage:    "the version to revert to; 0 reverts everything",
				Required: true,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return migrateWith(cmd, cfg, func(r *runner.Runner, ms []*migration.Migration) (*runner.Report, error) {
				return r.Down(ctx, ms, cmd.Int64("to"))
			})
		},
	}
}

// rollback creates the command reverting the most recently applied
// migrations.
//
// Example usage:
//
//	crossmigrate rollback
//	crossmigrate rollback --steps 3
func rollback(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "rollback",
		Usage:  "Revert the most recently applied migrations",
		Before: requireConfig(cfg),
		Flags: append(targetFlags(),
			&cli.IntFlag{
				Name:  "steps",
				Usage: "how many migrations to revert",
				Value: 1,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return migrateWith(cmd, cfg, func(r *runner.Runner, ms []*migration.Migration) (*runner.Report, error) {
				return r.Rollback(ctx, ms, cmd.Int("steps"))
			})
		},
	}
}

type runFunc func(*runner.Runner, []*migration.Migration) (*runner.Report, error)

func migrateWith(cmd *cli.Command, cfg *config.Config, fn runFunc) error {
	ms, err := loadMigrations(cfg.Dir)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	slog.Info("Running migrations", "command", cmd.Name, "provider", cfg.Provider, "driver", cfg.Target.Driver, "migrations", len(ms))

	report, err := fn(s.runner, ms)

	// Preview output is the SQL script alone.
	if report == nil || !report.Preview {
		printReport(output(cmd), report)
	}

	return err
}
