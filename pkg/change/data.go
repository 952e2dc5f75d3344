package change

import "fmt"

type (
	// Field is one column value of a row.
	Field struct {
		Column string
		Value  any
	}

	// Row is an ordered list of column values. Order is preserved in generated
	// column lists.
	Row []Field

	InsertRows struct {
		Schema string
		Table  string
		Rows   []Row
	}

	// UpdateRows sets the Set columns on every row matching Where (column
	// equality, AND-ed). AllRows must be set to update without a predicate.
	UpdateRows struct {
		Schema  string
		Table   string
		Set     Row
		Where   Row
		AllRows bool
	}

	// DeleteRows removes every row matching any of Where. Each entry is a
	// conjunction of column equalities. AllRows must be set to delete without
	// a predicate.
	DeleteRows struct {
		Schema  string
		Table   string
		Where   []Row
		AllRows bool
	}

	// UpsertRows inserts each row, or updates it when a row with the same
	// MatchColumns values already exists.
	//
	// UpdateColumns restricts the columns written on conflict; when empty every
	// non-match column of the row is updated. InsertOnly turns the conflict path
	// into a no-op instead of an update.
	UpsertRows struct {
		Schema        string
		Table         string
		Rows          []Row
		MatchColumns  []string
		UpdateColumns []string
		InsertOnly    bool
	}
)

func (*InsertRows) Kind() Kind { return KindInsertRows }
func (*UpdateRows) Kind() Kind { return KindUpdateRows }
func (*DeleteRows) Kind() Kind { return KindDeleteRows }
func (*UpsertRows) Kind() Kind { return KindUpsertRows }

func (*InsertRows) sealed() {}
func (*UpdateRows) sealed() {}
func (*DeleteRows) sealed() {}
func (*UpsertRows) sealed() {}

// Get returns the value of column.
func (r Row) Get(column string) (any, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Values returns the values in column order.
func (r Row) Values() []any {
	vals := make([]any, len(r))
	for i, f := range r {
		vals[i] = f.Value
	}
	return vals
}

// Pick returns the fields for columns, in the order given. Missing columns are
// skipped.
func (r Row) Pick(columns []string) Row {
	out := make(Row, 0, len(columns))
	for _, c := range columns {
		if v, ok := r.Get(c); ok {
			out = append(out, Field{Column: c, Value: v})
		}
	}
	return out
}

func (r Row) validate() []Violation {
	var v violations
	if len(r) == 0 {
		v.add("", "row has no values")
	}

	seen := make(map[string]struct{}, len(r))
	for i, f := range r {
		v.required(fmt.Sprintf("[%d].column", i), f.Column)
		if _, ok := seen[f.Column]; ok {
			v.add(fmt.Sprintf("[%d].column", i), "duplicate column %q", f.Column)
		}
		seen[f.Column] = struct{}{}
	}

	return v
}

func rowsViolations(v *violations, rows []Row) {
	if len(rows) == 0 {
		v.add("rows", "at least one row is required")
	}

	for i, r := range rows {
		v.merge(fmt.Sprintf("rows[%d]", i), r.validate())
	}
}

func (c *InsertRows) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	rowsViolations(&v, c.Rows)
	return v
}

// Reverse deletes exactly the inserted rows, matching on every inserted column.
func (c *InsertRows) Reverse() Change {
	where := make([]Row, len(c.Rows))
	copy(where, c.Rows)
	return &DeleteRows{Schema: c.Schema, Table: c.Table, Where: where}
}

func (c *UpdateRows) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	if len(c.Set) == 0 {
		v.add("set", "at least one column is required")
	} else {
		v.merge("set", c.Set.validate())
	}

	switch {
	case len(c.Where) > 0 && c.AllRows:
		v.add("where", "cannot be combined with all_rows")
	case len(c.Where) > 0:
		v.merge("where", c.Where.validate())
	case !c.AllRows:
		v.add("where", "is required unless all_rows is set")
	}

	return v
}

// Reverse returns nil: the overwritten values are unknown.
func (c *UpdateRows) Reverse() Change { return nil }

func (c *DeleteRows) Validate() []Violation {
	var v violations
	v.required("table", c.Table)

	switch {
	case len(c.Where) > 0 && c.AllRows:
		v.add("where", "cannot be combined with all_rows")
	case len(c.Where) > 0:
		for i, r := range c.Where {
			v.merge(fmt.Sprintf("where[%d]", i), r.validate())
		}
	case !c.AllRows:
		v.add("where", "is required unless all_rows is set")
	}

	return v
}

func (c *DeleteRows) Reverse() Change { return nil }

// ConflictColumns returns the columns written when row conflicts with an
// existing row: UpdateColumns when set, otherwise the row's non-match columns.
// InsertOnly upserts never write on conflict.
func (c *UpsertRows) ConflictColumns(row Row) []string {
	if c.InsertOnly {
		return nil
	}

	if len(c.UpdateColumns) > 0 {
		return c.UpdateColumns
	}

	match := make(map[string]struct{}, len(c.MatchColumns))
	for _, m := range c.MatchColumns {
		match[m] = struct{}{}
	}

	var cols []string
	for _, f := range row {
		if _, ok := match[f.Column]; !ok {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

func (c *UpsertRows) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	rowsViolations(&v, c.Rows)

	if len(c.MatchColumns) == 0 {
		v.add("match_columns", "at least one match column is required")
	} else {
		v.names("match_columns", c.MatchColumns)
	}

	match := make(map[string]struct{}, len(c.MatchColumns))
	for _, m := range c.MatchColumns {
		match[m] = struct{}{}
	}

	for i, u := range c.UpdateColumns {
		if _, ok := match[u]; ok {
			v.add(fmt.Sprintf("update_columns[%d]", i), "%q is also a match column", u)
		}
	}

	if c.InsertOnly && len(c.UpdateColumns) > 0 {
		v.add("update_columns", "cannot be combined with insert_only")
	}

	for i, r := range c.Rows {
		for _, m := range c.MatchColumns {
			if _, ok := r.Get(m); !ok {
				v.add(fmt.Sprintf("rows[%d]", i), "missing match column %q", m)
			}
		}
		for _, u := range c.UpdateColumns {
			if _, ok := r.Get(u); !ok {
				v.add(fmt.Sprintf("rows[%d]", i), "missing update column %q", u)
			}
		}
	}

	return v
}

// Reverse deletes the upserted rows keyed only on the match columns. Values
// of the other columns before the upsert are unknown and never guessed.
func (c *UpsertRows) Reverse() Change {
	where := make([]Row, len(c.Rows))
	for i, r := range c.Rows {
		where[i] = r.Pick(c.MatchColumns)
	}
	return &DeleteRows{Schema: c.Schema, Table: c.Table, Where: where}
}
