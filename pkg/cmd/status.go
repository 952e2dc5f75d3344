package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/runner"
	"github.com/urfave/cli/v3"
)

// status creates the command listing every known version and whether it has
// been applied. Versions recorded in the ledger without a migration source are
// flagged as missing. The ledger is never created by this command.
//
// Example usage:
//
//	crossmigrate status
//	crossmigrate status --dsn postgres://localhost/app_test
func status(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show migration status",
		Before: requireConfig(cfg),
		Flags:  targetFlags()[:1],
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ms, err := loadMigrations(cfg.Dir)
			if err != nil {
				return err
			}

			s, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			statuses, err := s.runner.Status(ctx, ms)
			if err != nil {
				return err
			}

			printStatus(output(cmd), cfg.Dir, statuses)
			return nil
		},
	}
}

func printStatus(w io.Writer, dir string, statuses []runner.VersionStatus) {
	fmt.Fprintln(w, "Migration Status")
	fmt.Fprintf(w, "Migration directory: %s\n", dir)
	fmt.Fprintln(w)

	if len(statuses) == 0 {
		fmt.Fprintln(w, "No migrations found.")
		return
	}

	var applied, pending, missing int
	for _, st := range statuses {
		breaking := ""
		if st.Breaking {
			breaking = " [breaking]"
		}

		switch {
		case st.Missing:
			missing++
			fmt.Fprintf(w, "  ❓ %d %s%s (applied %s, source missing)\n", st.Version, st.Description, breaking, st.AppliedAt.Format(timestampLayout))
		case st.Applied:
			applied++
			fmt.Fprintf(w, "  ✅ %d %s%s (applied %s)\n", st.Version, st.Description, breaking, st.AppliedAt.Format(timestampLayout))
		default:
			pending++
			fmt.Fprintf(w, "  ⏳ %d %s%s (pending)\n", st.Version, st.Description, breaking)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d migrations: %d applied, %d pending, %d missing\n", len(statuses), applied, pending, missing)
}

const timestampLayout = "2006-01-02 15:04:05 MST"
