package runner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/announce"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/pseudomuto/crossmigrate/pkg/ledger"
	"github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
	"github.com/pseudomuto/crossmigrate/pkg/splitter"
)

// Migration lifecycle states.
const (
	Pending State = iota
	Applying
	Applied
	Failed
	RolledBack
)

// Directions a migration can run in.
const (
	Up Direction = iota
	Down
)

type (
	// Processor executes statements against the target database. Begin opens
	// a transaction that Exec, Query and Exists use until Commit or Rollback.
	Processor interface {
		Exec(ctx context.Context, query string, args ...any) error
		Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
		Exists(ctx context.Context, query string, args ...any) (bool, error)
		Begin(ctx context.Context) error
		Commit() error
		Rollback() error
		SupportsTransactions() bool
		Close() error
	}

	State     int
	Direction int

	// Options configures a Runner. Generator and Processor are required.
	Options struct {
		Generator *dialect.Generator
		Processor Processor

		// Announcer receives statements and progress. Defaults to slog.
		Announcer announce.Announcer

		// LedgerSchema and LedgerTable locate the version ledger
		LedgerSchema string
		LedgerTable  string

		// LooseCompatibility logs and skips changes the target cannot express
		// instead of aborting the migration.
		LooseCompatibility bool

		// StrictOrdering aborts before any work when a version would be
		// applied out of order.
		StrictOrdering bool

		// Preview announces statements without executing them.
		Preview bool

		// Clock stamps ledger entries. Defaults to time.Now.
		Clock func() time.Time
	}

	// Result describes one migration run in one direction.
	Result struct {
		Version     int64
		Description string
		Direction   Direction
		State       State
		Statements  int
		Skipped     []change.Kind
		Duration    time.Duration
		Err         error
	}

	// Report is the outcome of an Up, Down or Rollback call.
	Report struct {
		Results  []*Result
		Warnings []OrderingWarning
		Preview  bool
	}

	// VersionStatus is one line of Status output. Missing marks an applied
	// version with no migration source.
	VersionStatus struct {
		Version     int64
		Description string
		Applied     bool
		AppliedAt   time.Time
		Breaking    bool
		Missing     bool
	}

	// Runner applies and reverts migrations against one target, recording
	// progress in the version ledger.
	//
	// Example usage:
	//
	//	r, err := runner.New(runner.Options{
	//		Generator: gen,
	//		Processor: db,
	//	})
	//	if err != nil {
	//		return err
	//	}
	//
	//	report, err := r.Up(ctx, migrations, 0)
	//	if err != nil {
	//		return err
	//	}
	//	fmt.Printf("applied %d migrations\n", len(report.Results))
	Runner struct {
		gen    *dialect.Generator
		proc   Processor
		oracle *oracle.Oracle
		ledger *ledger.Ledger
		ann    announce.Announcer
		split  *splitter.Splitter
		opts   Options
	}

	step struct {
		sql     string
		repeat  int
		perform *change.Perform
	}
)

func New(opts Options) (*Runner, error) {
	if opts.Generator == nil {
		return nil, errors.New("runner requires a generator")
	}
	if opts.Processor == nil {
		return nil, errors.New("runner requires a processor")
	}
	if opts.Announcer == nil {
		opts.Announcer = announce.NewLogger(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	o := opts.Generator.Oracle(opts.Processor)
	gen := opts.Generator.WithOracle(o)

	return &Runner{
		gen:    gen,
		proc:   opts.Processor,
		oracle: o,
		ledger: ledger.New(gen, opts.LedgerSchema, opts.LedgerTable),
		ann:    opts.Announcer,
		split:  splitter.New(gen.SplitOptions()),
		opts:   opts,
	}, nil
}

// Up applies pending migrations in ascending version order, stopping at
// target (inclusive). A zero target applies everything.
func (r *Runner) Up(ctx context.Context, ms []*migration.Migration, target int64) (*Report, error) {
	sorted, warnings, err := r.order(ms)
	if err != nil {
		return nil, err
	}

	set, err := r.prepare(ctx)
	if err != nil {
		return nil, err
	}

	var pending []*migration.Migration
	highest := set.Highest()
	for _, m := range sorted {
		if set.IsApplied(m.Version) || (target > 0 && m.Version > target) {
			continue
		}
		if m.Version < highest {
			warnings = append(warnings, OrderingWarning{
				Version: m.Version,
				Reason:  fmt.Sprintf("is pending below applied version %d", highest),
			})
		}
		pending = append(pending, m)
	}

	report := &Report{Preview: r.opts.Preview}
	if err := r.checkOrdering(report, warnings); err != nil {
		return nil, err
	}

	if len(pending) == 0 {
		r.ann.Say("Nothing to migrate")
		return report, nil
	}

	return report, r.runAll(ctx, report, pending, Up)
}

// Down reverts applied migrations above target in descending order.
func (r *Runner) Down(ctx context.Context, ms []*migration.Migration, target int64) (*Report, error) {
	return r.revert(ctx, ms, func(applied []int64) []int64 {
		var out []int64
		for _, v := range applied {
			if v > target {
				out = append(out, v)
			}
		}
		return out
	})
}

// Rollback reverts the last steps applied migrations.
func (r *Runner) Rollback(ctx context.Context, ms []*migration.Migration, steps int) (*Report, error) {
	if steps < 1 {
		return nil, errors.Errorf("rollback steps must be positive, got %d", steps)
	}

	return r.revert(ctx, ms, func(applied []int64) []int64 {
		if steps < len(applied) {
			return applied[:steps]
		}
		return applied
	})
}

// Status lists every known version: each migration source and every applied
// version, in ascending order. The ledger is not created when missing.
func (r *Runner) Status(ctx context.Context, ms []*migration.Migration) ([]VersionStatus, error) {
	if err := migration.CheckDuplicates(ms); err != nil {
		return nil, err
	}

	exists, err := r.oracle.TableExists(ctx, r.ledger.Schema(), r.ledger.Table())
	if err != nil {
		return nil, errors.Wrap(err, "failed to check for ledger table")
	}

	set := ledger.NewSet(nil)
	if exists {
		if set, err = r.ledger.Load(ctx, r.proc); err != nil {
			return nil, err
		}
	}

	byVersion := make(map[int64]*VersionStatus)
	for _, m := range ms {
		byVersion[m.Version] = &VersionStatus{
			Version:     m.Version,
			Description: m.Description,
			Breaking:    m.Breaking,
		}
	}

	for _, v := range set.Versions() {
		entry := set.Get(v)
		s, ok := byVersion[v]
		if !ok {
			s = &VersionStatus{Version: v, Description: entry.Description, Missing: true}
			byVersion[v] = s
		}
		s.Applied = true
		s.AppliedAt = entry.AppliedAt
	}

	out := make([]VersionStatus, 0, len(byVersion))
	for _, s := range byVersion {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	return out, nil
}

func (r *Runner) revert(ctx context.Context, ms []*migration.Migration, pick func(applied []int64) []int64) (*Report, error) {
	if err := migration.CheckDuplicates(ms); err != nil {
		return nil, err
	}

	set, err := r.prepare(ctx)
	if err != nil {
		return nil, err
	}

	applied := set.Versions()
	sort.Slice(applied, func(i, j int) bool { return applied[i] > applied[j] })

	byVersion := make(map[int64]*migration.Migration, len(ms))
	for _, m := range ms {
		byVersion[m.Version] = m
	}

	var targets []*migration.Migration
	for _, v := range pick(applied) {
		m, ok := byVersion[v]
		if !ok {
			return nil, errors.Errorf("applied version %d has no migration source", v)
		}
		targets = append(targets, m)
	}

	report := &Report{Preview: r.opts.Preview}
	if len(targets) == 0 {
		r.ann.Say("Nothing to revert")
		return report, nil
	}

	return report, r.runAll(ctx, report, targets, Down)
}

func (r *Runner) runAll(ctx context.Context, report *Report, ms []*migration.Migration, dir Direction) error {
	for _, m := range ms {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "migration run cancelled")
		}

		res := r.run(ctx, m, dir)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// order sorts a copy of ms and reports versions discovered out of order.
func (r *Runner) order(ms []*migration.Migration) ([]*migration.Migration, []OrderingWarning, error) {
	if err := migration.CheckDuplicates(ms); err != nil {
		return nil, nil, err
	}

	var warnings []OrderingWarning
	for i := 1; i < len(ms); i++ {
		if ms[i].Version < ms[i-1].Version {
			warnings = append(warnings, OrderingWarning{
				Version: ms[i].Version,
				Reason:  fmt.Sprintf("was discovered after version %d", ms[i-1].Version),
			})
		}
	}

	sorted := make([]*migration.Migration, len(ms))
	copy(sorted, ms)
	migration.Sort(sorted)

	return sorted, warnings, nil
}

func (r *Runner) checkOrdering(report *Report, warnings []OrderingWarning) error {
	if len(warnings) == 0 {
		return nil
	}

	if r.opts.StrictOrdering {
		return &OrderingError{Warnings: warnings}
	}

	for _, w := range warnings {
		slog.Warn("Migration out of order", "version", w.Version, "reason", w.Reason)
		r.ann.Say("Warning: migration out of order", "version", w.Version, "reason", w.Reason)
	}
	report.Warnings = warnings
	return nil
}

// prepare creates the ledger when missing and loads it. Previews announce
// the ledger statements and treat a missing ledger as empty.
func (r *Runner) prepare(ctx context.Context) (*ledger.Set, error) {
	stmts, err := r.ledger.Bootstrap(ctx, r.oracle)
	if err != nil {
		return nil, err
	}

	if len(stmts) > 0 {
		r.ann.Say("Creating version ledger", "table", r.ledger.Table())

		execCtx := context.WithoutCancel(ctx)
		for _, text := range stmts {
			for _, stmt := range r.split.Split(text) {
				r.ann.SQL(stmt.SQL)
				if r.opts.Preview {
					continue
				}
				if err := r.proc.Exec(execCtx, stmt.SQL); err != nil {
					return nil, errors.Wrapf(err, "failed to create version ledger: %s", stmt.SQL)
				}
			}
		}

		if r.opts.Preview {
			return ledger.NewSet(nil), nil
		}
	}

	return r.ledger.Load(ctx, r.proc)
}

func (r *Runner) run(ctx context.Context, m *migration.Migration, dir Direction) *Result {
	res := &Result{Version: m.Version, Description: m.Description, Direction: dir, State: Pending}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	verb := "Applying"
	if dir == Down {
		verb = "Reverting"
	}
	r.ann.Say(verb+" migration", "version", m.Version, "description", m.Description)

	steps, err := r.plan(ctx, m, dir, res)
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}

	if r.opts.Preview {
		for _, s := range steps {
			if s.perform != nil {
				r.ann.Say("Would perform", "description", s.perform.Description)
				continue
			}
			r.ann.SQL(s.sql)
		}
		res.Statements = len(steps)
		return res
	}

	res.State = Applying
	execCtx := context.WithoutCancel(ctx)

	transactional := m.Transaction == migration.Automatic
	if transactional && !r.proc.SupportsTransactions() {
		slog.Warn("Target does not support transactions, running migration without one", "version", m.Version)
		r.ann.Say("Warning: running without a transaction", "version", m.Version)
		transactional = false
	}

	if transactional {
		if err := r.proc.Begin(execCtx); err != nil {
			res.State = Failed
			res.Err = errors.Wrapf(err, "failed to begin transaction for migration %d", m.Version)
			return res
		}
	}

	for _, s := range steps {
		if err := r.execute(execCtx, s); err != nil {
			res.Err = &ExecutionError{Version: m.Version, SQL: s.sql, Cause: err, Manual: !transactional}
			res.State = Failed

			if transactional {
				if rbErr := r.proc.Rollback(); rbErr != nil {
					slog.Error("Failed to roll back migration", "version", m.Version, "error", rbErr)
				} else {
					res.State = RolledBack
				}
			}
			return res
		}
		res.Statements++
	}

	if transactional {
		if err := r.proc.Commit(); err != nil {
			res.State = Failed
			res.Err = errors.Wrapf(err, "failed to commit migration %d", m.Version)
			return res
		}
	}

	res.State = Applied
	if dir == Down {
		res.State = Pending
	}
	return res
}

// plan collects the migration's changes for dir, generates their SQL and
// splits it into executable steps. The ledger update is the final step.
func (r *Runner) plan(ctx context.Context, m *migration.Migration, dir Direction, res *Result) ([]step, error) {
	changes, err := r.changes(ctx, m, dir)
	if err != nil {
		return nil, err
	}

	if dir == Up {
		changes = append(changes, r.ledger.Applied(m.Version, m.Description, r.opts.Clock()))
	} else {
		changes = append(changes, r.ledger.Reverted(m.Version))
	}

	var steps []step
	for _, c := range changes {
		if p, ok := c.(*change.Perform); ok {
			if err := change.Validate(p); err != nil {
				return nil, errors.Wrapf(err, "migration %d", m.Version)
			}
			steps = append(steps, step{perform: p})
			continue
		}

		text, err := r.gen.GenerateContext(ctx, c)
		if err != nil {
			if r.opts.LooseCompatibility && dialect.IsCompatibility(err) {
				slog.Warn("Skipping change the target cannot express", "version", m.Version, "kind", c.Kind(), "reason", err.Error())
				r.ann.Say("Warning: skipping unsupported change", "version", m.Version, "kind", string(c.Kind()))
				res.Skipped = append(res.Skipped, c.Kind())
				continue
			}
			return nil, errors.Wrapf(err, "migration %d", m.Version)
		}

		for _, stmt := range r.split.Split(text) {
			steps = append(steps, step{sql: stmt.SQL, repeat: stmt.Repeat})
		}
	}

	return steps, nil
}

func (r *Runner) changes(ctx context.Context, m *migration.Migration, dir Direction) ([]change.Change, error) {
	if dir == Up {
		return migration.Collect(ctx, m.Up, r.gen, r.oracle)
	}

	if m.Down != nil {
		return migration.Collect(ctx, m.Down, r.gen, r.oracle)
	}

	up, err := migration.Collect(ctx, m.Up, r.gen, r.oracle)
	if err != nil {
		return nil, err
	}

	down, err := migration.Reverse(up)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot revert migration %d", m.Version)
	}
	return down, nil
}

func (r *Runner) execute(ctx context.Context, s step) error {
	if s.perform != nil {
		r.ann.Say("Performing", "description", s.perform.Description)
		return s.perform.Fn(ctx, r.proc)
	}

	for i := 0; i < max(1, s.repeat); i++ {
		r.ann.SQL(s.sql)
		if err := r.proc.Exec(ctx, s.sql); err != nil {
			return err
		}
	}
	return nil
}

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Applying:
		return "applying"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}
