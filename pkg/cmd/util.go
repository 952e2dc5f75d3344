package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/announce"
	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/pseudomuto/crossmigrate/pkg/processor"
	"github.com/pseudomuto/crossmigrate/pkg/runner"
	"github.com/urfave/cli/v3"
)

func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dsn",
			Usage:   "connection string, overriding target.dsn from the config",
			Sources: cli.EnvVars("CROSSMIGRATE_DSN"),
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
		&cli.BoolFlag{
			Name:  "preview",
			Usage: "print the statements that would run without executing them",
		},
	}
}

// session is an opened target plus the runner driving it.
type session struct {
	db     *processor.DB
	runner *runner.Runner
}

func (s *session) Close() error { return s.db.Close() }

func openSession(cmd *cli.Command, cfg *config.Config) (*session, error) {
	gen, err := cfg.Generator()
	if err != nil {
		return nil, err
	}

	opts := cfg.ProcessorOptions()
	if dsn := cmd.String("dsn"); dsn != "" {
		opts.DSN = dsn
	}

	db, err := processor.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open target")
	}

	preview := cfg.Preview || cmd.Bool("preview")

	var ann announce.Announcer = announce.NewLogger(slog.Default())
	if preview {
		ann = announce.Multi(ann, announce.NewScript(output(cmd)))
	}

	r, err := runner.New(runner.Options{
		Generator:          gen,
		Processor:          db,
		Announcer:          ann,
		LedgerSchema:       cfg.Ledger.Schema,
		LedgerTable:        cfg.Ledger.Table,
		LooseCompatibility: cfg.LooseCompatibility(),
		StrictOrdering:     cfg.StrictOrdering(),
		Preview:            preview,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &session{db: db, runner: r}, nil
}

func loadMigrations(dir string) ([]*migration.Migration, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, errors.Errorf("migrations directory does not exist: %s", dir)
	}

	ms, err := migration.LoadDir(os.DirFS(dir))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load migrations")
	}

	slog.Debug("Loaded migrations", "dir", dir, "count", len(ms))
	return ms, nil
}

// writeSum recomputes and writes the sum file of dir, returning the number of
// files it covers.
func writeSum(dir string) (int, error) {
	sum, err := migration.ComputeSum(os.DirFS(dir))
	if err != nil {
		return 0, err
	}

	path := filepath.Join(dir, consts.DefaultSumFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create sum file: %s", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := sum.WriteTo(f); err != nil {
		return 0, errors.Wrap(err, "failed to write sum file")
	}

	return sum.Files(), nil
}

func printReport(w io.Writer, report *runner.Report) {
	if report == nil {
		return
	}

	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warn)
	}

	if len(report.Results) == 0 {
		fmt.Fprintln(w, "Nothing to migrate")
		return
	}

	for _, res := range report.Results {
		fmt.Fprintf(w, "%s %d %s (%d statements, %s)\n",
			resultIcon(res, report.Preview),
			res.Version,
			res.Description,
			res.Statements,
			res.Duration.Round(time.Millisecond),
		)
		for _, k := range res.Skipped {
			fmt.Fprintf(w, "     skipped %s (unsupported by target)\n", k)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "     %v\n", res.Err)
		}
	}
}

func resultIcon(res *runner.Result, preview bool) string {
	switch {
	case preview:
		return "📝"
	case res.State == runner.Failed:
		return "❌"
	case res.State == runner.RolledBack:
		return "↩️ "
	case res.Direction == runner.Down:
		return "⏪"
	default:
		return "✅"
	}
}
