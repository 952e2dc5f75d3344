package change

import (
	"fmt"
	"sort"
)

// Feature names a vendor specific option attached to an index or table.
type Feature string

// Known features and the value type each one carries.
const (
	// FillFactor is the index page fill percentage (int, 1-100).
	FillFactor Feature = "fill_factor"

	// Filter is a partial index predicate (string).
	Filter Feature = "filter"

	// Algorithm is the index storage method, e.g. "btree", "gin" or "hash" (string).
	Algorithm Feature = "algorithm"

	// Clustered selects a clustered index on SQL Server (bool).
	Clustered Feature = "clustered"

	// Include lists covering columns stored in the index leaf ([]string).
	Include Feature = "include"

	// Concurrently builds the index without blocking writes on Postgres (bool).
	Concurrently Feature = "concurrently"

	// Engine is the ClickHouse table engine, e.g. "MergeTree()" (string).
	Engine Feature = "engine"

	// OrderBy is the ClickHouse sorting key ([]string).
	OrderBy Feature = "order_by"
)

type featureKind int

const (
	intFeature featureKind = iota
	stringFeature
	boolFeature
	stringsFeature
)

var featureKinds = map[Feature]featureKind{
	FillFactor:   intFeature,
	Filter:       stringFeature,
	Algorithm:    stringFeature,
	Clustered:    boolFeature,
	Include:      stringsFeature,
	Concurrently: boolFeature,
	Engine:       stringFeature,
	OrderBy:      stringsFeature,
}

// Features is a typed side-table of vendor options. The zero value is empty
// and ready to use. Values must match the type documented on each Feature;
// Validate reports mismatches.
//
// Example usage:
//
//	idx := change.Index{
//		Name:    "ix_users_email",
//		Columns: []change.IndexColumn{{Name: "email"}},
//		Features: change.Features{}.
//			With(change.Filter, "deleted_at IS NULL").
//			With(change.Include, []string{"name"}),
//	}
type Features struct {
	values map[Feature]any
}

// With returns a copy of f with name set to value.
func (f Features) With(name Feature, value any) Features {
	values := make(map[Feature]any, len(f.values)+1)
	for k, v := range f.values {
		values[k] = v
	}
	values[name] = value
	return Features{values: values}
}

func (f Features) Has(name Feature) bool {
	_, ok := f.values[name]
	return ok
}

func (f Features) Len() int { return len(f.values) }

// Names returns the set features in sorted order.
func (f Features) Names() []Feature {
	names := make([]Feature, 0, len(f.values))
	for k := range f.values {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (f Features) Int(name Feature) (int, bool) {
	v, ok := f.values[name].(int)
	return v, ok
}

func (f Features) String(name Feature) (string, bool) {
	v, ok := f.values[name].(string)
	return v, ok
}

func (f Features) Bool(name Feature) (bool, bool) {
	v, ok := f.values[name].(bool)
	return v, ok
}

func (f Features) Strings(name Feature) ([]string, bool) {
	v, ok := f.values[name].([]string)
	return v, ok
}

func (f Features) validate() []Violation {
	var v violations
	for _, name := range f.Names() {
		kind, known := featureKinds[name]
		if !known {
			v.add(string(name), "unknown feature")
			continue
		}

		value := f.values[name]
		ok := false
		switch kind {
		case intFeature:
			_, ok = value.(int)
		case stringFeature:
			_, ok = value.(string)
		case boolFeature:
			_, ok = value.(bool)
		case stringsFeature:
			_, ok = value.([]string)
		}

		if !ok {
			v.add(string(name), "unexpected value type %T", value)
		}
	}

	if n, ok := f.Int(FillFactor); ok && (n < 1 || n > 100) {
		v.add(string(FillFactor), "must be between 1 and 100, got %d", n)
	}

	return v
}

func (f Features) GoString() string {
	return fmt.Sprintf("change.Features%v", f.values)
}
