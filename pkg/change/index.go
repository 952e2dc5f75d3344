package change

import "fmt"

// Direction is an index column sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

type (
	IndexColumn struct {
		Name      string
		Direction Direction
	}

	// Index defines an index over ordered columns. Vendor only options go in
	// Features and are attached only when the target generator supports them.
	Index struct {
		Name     string
		Columns  []IndexColumn
		Unique   bool
		Features Features
	}

	CreateIndex struct {
		Schema string
		Table  string
		Index  Index
	}

	DeleteIndex struct {
		Schema string
		Table  string
		Name   string
	}
)

func (*CreateIndex) Kind() Kind { return KindCreateIndex }
func (*DeleteIndex) Kind() Kind { return KindDeleteIndex }
func (*CreateIndex) sealed()    {}
func (*DeleteIndex) sealed()    {}

// ColumnNames returns the index column names in order.
func (i Index) ColumnNames() []string {
	names := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		names[n] = c.Name
	}
	return names
}

func (c *CreateIndex) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("index.name", c.Index.Name)

	if len(c.Index.Columns) == 0 {
		v.add("index.columns", "at least one column is required")
	}
	for i, col := range c.Index.Columns {
		v.required(fmt.Sprintf("index.columns[%d].name", i), col.Name)
		if col.Direction != Ascending && col.Direction != Descending {
			v.add(fmt.Sprintf("index.columns[%d].direction", i), "unknown direction %d", col.Direction)
		}
	}

	v.merge("index.features", c.Index.Features.validate())
	return v
}

func (c *CreateIndex) Reverse() Change {
	return &DeleteIndex{Schema: c.Schema, Table: c.Table, Name: c.Index.Name}
}

func (c *DeleteIndex) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("name", c.Name)
	return v
}

func (c *DeleteIndex) Reverse() Change { return nil }
