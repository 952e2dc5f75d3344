package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
)

type (
	// Querier reads ledger rows from the target database.
	Querier interface {
		Query(context.Context, string, ...any) (*sql.Rows, error)
	}

	// Entry records one applied migration version.
	Entry struct {
		Version     int64
		AppliedAt   time.Time
		Description string
	}

	// Set is the collection of entries loaded from the ledger table, with
	// lookups by version.
	//
	// Example usage:
	//
	//	set, err := l.Load(ctx, db)
	//	if err != nil {
	//		return err
	//	}
	//
	//	if set.IsApplied(20240101120000) {
	//		fmt.Println("users table exists")
	//	}
	Set struct {
		entries map[int64]*Entry
		ordered []int64
	}

	// Ledger owns the table recording which versions have been applied. Every
	// statement touching the table is produced by the target's generator, so
	// the ledger works on any dialect the generator supports.
	Ledger struct {
		gen    *dialect.Generator
		schema string
		table  string
	}
)

// New creates a ledger stored in schema.table. An empty table uses the
// default name.
func New(gen *dialect.Generator, schema, table string) *Ledger {
	if table == "" {
		table = consts.DefaultLedgerTable
	}
	return &Ledger{gen: gen, schema: schema, table: table}
}

func (l *Ledger) Schema() string { return l.schema }
func (l *Ledger) Table() string  { return l.table }

// IndexName is the name of the unique index on the version column.
func (l *Ledger) IndexName() string {
	return "ux_" + l.table + "_" + consts.LedgerVersionColumn
}

// Bootstrap returns the SQL creating the ledger table and its unique version
// index, or nothing when the table already exists. o may be nil, in which
// case the table is assumed missing.
//
// Targets that cannot express a unique index (ClickHouse) get the table
// alone.
func (l *Ledger) Bootstrap(ctx context.Context, o *oracle.Oracle) ([]string, error) {
	if o != nil {
		exists, err := o.TableExists(ctx, l.schema, l.table)
		if err != nil {
			return nil, errors.Wrap(err, "failed to check for ledger table")
		}
		if exists {
			return nil, nil
		}
	}

	var changes []change.Change
	if l.schema != "" {
		missing := true
		if o != nil {
			exists, err := o.SchemaExists(ctx, l.schema)
			if err != nil {
				return nil, errors.Wrap(err, "failed to check for ledger schema")
			}
			missing = !exists
		}
		if missing {
			changes = append(changes, &change.CreateSchema{Name: l.schema})
		}
	}

	changes = append(changes, l.createTable(), &change.CreateIndex{
		Schema: l.schema,
		Table:  l.table,
		Index: change.Index{
			Name:    l.IndexName(),
			Columns: []change.IndexColumn{{Name: consts.LedgerVersionColumn}},
			Unique:  true,
		},
	})

	stmts := make([]string, 0, len(changes))
	for _, c := range changes {
		sql, err := l.gen.GenerateContext(ctx, c)
		if err != nil {
			if c.Kind() == change.KindCreateIndex && dialect.IsCompatibility(err) {
				slog.Warn("Ledger version index not supported by target", "dialect", l.gen.Dialect().String(), "reason", err.Error())
				continue
			}
			return nil, errors.Wrapf(err, "failed to generate ledger %s", c.Kind())
		}
		stmts = append(stmts, sql)
	}

	return stmts, nil
}

func (l *Ledger) createTable() *change.CreateTable {
	t := &change.CreateTable{
		Schema: l.schema,
		Table:  l.table,
		Columns: []change.Column{
			change.NewColumn(consts.LedgerVersionColumn, change.Int64()),
			change.NewColumn(consts.LedgerAppliedAtColumn, change.DateTime()),
			change.NewColumn(consts.LedgerDescriptionColumn, change.String(consts.LedgerDescriptionSize)).Nullable(),
		},
	}

	if l.gen.SupportsFeature(change.OrderBy) {
		t.Features = t.Features.With(change.OrderBy, []string{consts.LedgerVersionColumn})
	}

	return t
}

// Load reads every entry of the ledger table in ascending version order.
func (l *Ledger) Load(ctx context.Context, q Querier) (*Set, error) {
	quoter := l.gen.Quoter()
	query := "SELECT " + quoter.QuoteIdentifiers([]string{
		consts.LedgerVersionColumn,
		consts.LedgerAppliedAtColumn,
		consts.LedgerDescriptionColumn,
	}) + " FROM " + quoter.QuoteQualified(l.schema, l.table)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ledger")
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var (
			entry       Entry
			appliedAt   any
			description sql.NullString
		)
		if err := rows.Scan(&entry.Version, &appliedAt, &description); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger row")
		}

		if entry.AppliedAt, err = parseTime(appliedAt); err != nil {
			return nil, errors.Wrapf(err, "invalid applied_at for version %d", entry.Version)
		}
		entry.Description = description.String
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ledger rows")
	}

	return NewSet(entries), nil
}

// Applied returns the change recording version as applied at the given time.
func (l *Ledger) Applied(version int64, description string, at time.Time) change.Change {
	description = truncate(description, consts.LedgerDescriptionSize)

	return &change.InsertRows{
		Schema: l.schema,
		Table:  l.table,
		Rows: []change.Row{{
			{Column: consts.LedgerVersionColumn, Value: version},
			{Column: consts.LedgerAppliedAtColumn, Value: at.UTC()},
			{Column: consts.LedgerDescriptionColumn, Value: description},
		}},
	}
}

// Reverted returns the change removing version from the ledger.
func (l *Ledger) Reverted(version int64) change.Change {
	return &change.DeleteRows{
		Schema: l.schema,
		Table:  l.table,
		Where:  []change.Row{{{Column: consts.LedgerVersionColumn, Value: version}}},
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTime accepts the timestamp representations drivers hand back; SQLite
// returns the stored text.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTime(string(t))
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, errors.Errorf("unrecognized timestamp %q", t)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, errors.Errorf("unexpected timestamp type %T", v)
	}
}

// NewSet creates a set from entries, ordered by version.
func NewSet(entries []*Entry) *Set {
	s := &Set{entries: make(map[int64]*Entry, len(entries))}
	for _, e := range entries {
		if _, ok := s.entries[e.Version]; !ok {
			s.ordered = append(s.ordered, e.Version)
		}
		s.entries[e.Version] = e
	}
	sort.Slice(s.ordered, func(i, j int) bool { return s.ordered[i] < s.ordered[j] })
	return s
}

func (s *Set) IsApplied(version int64) bool {
	_, ok := s.entries[version]
	return ok
}

// Get returns the entry for version, or nil.
func (s *Set) Get(version int64) *Entry { return s.entries[version] }

// Versions returns the applied versions in ascending order.
func (s *Set) Versions() []int64 {
	out := make([]int64, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Highest returns the largest applied version, or 0 when nothing is applied.
func (s *Set) Highest() int64 {
	if len(s.ordered) == 0 {
		return 0
	}
	return s.ordered[len(s.ordered)-1]
}

func (s *Set) Count() int { return len(s.ordered) }

// truncate limits s to n characters. The column is VARCHAR(n), which counts
// characters rather than bytes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
