package migration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/pseudomuto/crossmigrate/pkg/oracle"
)

// TransactionMode controls how a migration's statements are wrapped.
type TransactionMode int

const (
	// Automatic runs the migration and its ledger update in one transaction.
	Automatic TransactionMode = iota

	// None runs the statements outside a transaction. A failure part way
	// through leaves the target needing manual attention.
	None
)

func (m TransactionMode) String() string {
	if m == None {
		return "none"
	}
	return "automatic"
}

// ParseTransactionMode parses "automatic" (or "") and "none".
func ParseTransactionMode(s string) (TransactionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "automatic":
		return Automatic, nil
	case "none":
		return None, nil
	default:
		return Automatic, errors.Errorf("unknown transaction mode %q", s)
	}
}

type (
	// Body emits the changes of one direction of a migration. Bodies may
	// consult the builder's oracle to decide what to emit; they are run once
	// per attempt against a fresh builder.
	Body func(ctx context.Context, b *Builder) error

	// Migration is one versioned, ordered unit of schema change.
	//
	// Example usage:
	//
	//	m := &migration.Migration{
	//		Version:     20240101120000,
	//		Description: "create users",
	//		Up: func(_ context.Context, b *migration.Builder) error {
	//			b.Add(&change.CreateTable{Table: "users", Columns: cols})
	//			return nil
	//		},
	//	}
	//
	// A nil Down reverses the Up changes mechanically.
	Migration struct {
		Version     int64
		Description string
		Transaction TransactionMode
		Breaking    bool
		Up          Body
		Down        Body

		// Source names where the migration was loaded from, if anywhere.
		Source string
	}

	// Builder collects the changes emitted by a migration body.
	Builder struct {
		gen     *dialect.Generator
		oracle  *oracle.Oracle
		changes []change.Change
	}
)

func (m *Migration) String() string {
	if m.Description == "" {
		return fmt.Sprintf("%d", m.Version)
	}
	return fmt.Sprintf("%d %s", m.Version, m.Description)
}

// NewBuilder creates a builder for gen. o may be nil when no live schema is
// available (previews against offline targets).
func NewBuilder(gen *dialect.Generator, o *oracle.Oracle) *Builder {
	return &Builder{gen: gen, oracle: o}
}

// Add queues changes in order.
func (b *Builder) Add(changes ...change.Change) *Builder {
	b.changes = append(b.changes, changes...)
	return b
}

// SQL queues raw SQL. The text is split into statements with the dialect's
// splitter before execution.
func (b *Builder) SQL(sql string) *Builder {
	return b.Add(&change.ExecuteSQL{SQL: sql})
}

// Perform queues a callback run against the processor in order with the
// other changes.
func (b *Builder) Perform(description string, fn func(context.Context, change.Executor) error) *Builder {
	return b.Add(&change.Perform{Description: description, Fn: fn})
}

func (b *Builder) Dialect() dialect.Dialect { return b.gen.Dialect() }

// SupportsFeature reports whether the target dialect understands f. Check it
// before attaching vendor features to tables and indexes.
func (b *Builder) SupportsFeature(f change.Feature) bool { return b.gen.SupportsFeature(f) }

// Oracle returns the schema oracle of the target, or nil.
func (b *Builder) Oracle() *oracle.Oracle { return b.oracle }

// Changes returns the queued changes.
func (b *Builder) Changes() []change.Change { return b.changes }

// Collect runs body against a fresh builder and returns what it emitted.
func Collect(ctx context.Context, body Body, gen *dialect.Generator, o *oracle.Oracle) ([]change.Change, error) {
	if body == nil {
		return nil, nil
	}

	b := NewBuilder(gen, o)
	if err := body(ctx, b); err != nil {
		return nil, err
	}

	changes := b.Changes()
	for i, c := range changes {
		if change.IsNil(c) {
			return nil, errors.Errorf("change %d is nil", i)
		}
	}

	return changes, nil
}

// Reverse returns the mechanical inverse of changes: each change reversed, in
// reverse order. It fails on the first change without an inverse.
func Reverse(changes []change.Change) ([]change.Change, error) {
	out := make([]change.Change, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		if change.IsNil(changes[i]) {
			return nil, errors.Errorf("change %d is nil", i)
		}

		inv := changes[i].Reverse()
		if inv == nil {
			return nil, errors.Errorf("%s has no mechanical inverse; write an explicit down migration", changes[i].Kind())
		}
		out = append(out, inv)
	}
	return out, nil
}

// Sort orders migrations by ascending version.
func Sort(ms []*Migration) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
}

// CheckDuplicates fails when two migrations share a version.
func CheckDuplicates(ms []*Migration) error {
	seen := make(map[int64]*Migration, len(ms))
	for _, m := range ms {
		if prev, ok := seen[m.Version]; ok {
			return errors.Errorf("duplicate migration version %d (%s and %s)", m.Version, prev.Source, m.Source)
		}
		seen[m.Version] = m
	}
	return nil
}
