package change

import "fmt"

type (
	// CreateTable creates a table with the given columns. Features carries
	// vendor specific table options (e.g. Engine and OrderBy for ClickHouse).
	CreateTable struct {
		Schema   string
		Table    string
		Columns  []Column
		Features Features
	}

	// DeleteTable drops a table.
	DeleteTable struct {
		Schema string
		Table  string
	}

	// RenameTable renames a table within its schema.
	RenameTable struct {
		Schema  string
		Table   string
		NewName string
	}

	// CreateColumn adds a column to an existing table.
	CreateColumn struct {
		Schema string
		Table  string
		Column Column
	}

	// AlterColumn changes the definition of an existing column to Column.
	AlterColumn struct {
		Schema string
		Table  string
		Column Column
	}

	// RenameColumn renames a column.
	RenameColumn struct {
		Schema  string
		Table   string
		Column  string
		NewName string
	}

	// DeleteColumn drops a column.
	DeleteColumn struct {
		Schema string
		Table  string
		Column string
	}
)

func (*CreateTable) Kind() Kind  { return KindCreateTable }
func (*DeleteTable) Kind() Kind  { return KindDeleteTable }
func (*RenameTable) Kind() Kind  { return KindRenameTable }
func (*CreateColumn) Kind() Kind { return KindCreateColumn }
func (*AlterColumn) Kind() Kind  { return KindAlterColumn }
func (*RenameColumn) Kind() Kind { return KindRenameColumn }
func (*DeleteColumn) Kind() Kind { return KindDeleteColumn }

func (*CreateTable) sealed()  {}
func (*DeleteTable) sealed()  {}
func (*RenameTable) sealed()  {}
func (*CreateColumn) sealed() {}
func (*AlterColumn) sealed()  {}
func (*RenameColumn) sealed() {}
func (*DeleteColumn) sealed() {}

// PrimaryKey returns the names of the primary key columns in declaration order.
func (c *CreateTable) PrimaryKey() []string {
	var keys []string
	for _, col := range c.Columns {
		if col.IsPrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// PrimaryKeyName returns the first explicit primary key constraint name.
func (c *CreateTable) PrimaryKeyName() string {
	for _, col := range c.Columns {
		if col.IsPrimaryKey && col.PrimaryKeyName != "" {
			return col.PrimaryKeyName
		}
	}
	return ""
}

func (c *CreateTable) Validate() []Violation {
	var v violations
	v.required("table", c.Table)

	if len(c.Columns) == 0 {
		v.add("columns", "at least one column is required")
	}

	seen := make(map[string]struct{}, len(c.Columns))
	identities := 0
	for i, col := range c.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		v.merge(field, col.validate())

		if _, ok := seen[col.Name]; ok && col.Name != "" {
			v.add(field+".name", "duplicate column %q", col.Name)
		}
		seen[col.Name] = struct{}{}

		if col.IsIdentity {
			identities++
		}
	}

	if identities > 1 {
		v.add("columns", "at most one identity column is allowed")
	}

	v.merge("features", c.Features.validate())
	return v
}

func (c *CreateTable) Reverse() Change {
	return &DeleteTable{Schema: c.Schema, Table: c.Table}
}

func (c *DeleteTable) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	return v
}

// Reverse returns nil: the dropped table's definition is not carried.
func (c *DeleteTable) Reverse() Change { return nil }

func (c *RenameTable) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("new_name", c.NewName)
	if c.Table != "" && c.Table == c.NewName {
		v.add("new_name", "must differ from the current name")
	}
	return v
}

func (c *RenameTable) Reverse() Change {
	return &RenameTable{Schema: c.Schema, Table: c.NewName, NewName: c.Table}
}

func (c *CreateColumn) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.merge("column", c.Column.validate())
	return v
}

func (c *CreateColumn) Reverse() Change {
	return &DeleteColumn{Schema: c.Schema, Table: c.Table, Column: c.Column.Name}
}

func (c *AlterColumn) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.merge("column", c.Column.validate())
	return v
}

// Reverse returns nil: the previous definition is unknown.
func (c *AlterColumn) Reverse() Change { return nil }

func (c *RenameColumn) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("column", c.Column)
	v.required("new_name", c.NewName)
	if c.Column != "" && c.Column == c.NewName {
		v.add("new_name", "must differ from the current name")
	}
	return v
}

func (c *RenameColumn) Reverse() Change {
	return &RenameColumn{Schema: c.Schema, Table: c.Table, Column: c.NewName, NewName: c.Column}
}

func (c *DeleteColumn) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("column", c.Column)
	return v
}

func (c *DeleteColumn) Reverse() Change { return nil }
