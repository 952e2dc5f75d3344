package change

// ReferentialAction is the ON DELETE / ON UPDATE behavior of a foreign key.
type ReferentialAction string

const (
	NoAction   ReferentialAction = ""
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
	Restrict   ReferentialAction = "RESTRICT"
)

// ConstraintType selects the kind of table constraint.
type ConstraintType int

const (
	PrimaryKeyConstraint ConstraintType = iota + 1
	UniqueConstraint
	CheckConstraint
)

type (
	// ForeignKey references ForeignColumns of ForeignTable from Columns of Table.
	ForeignKey struct {
		Name           string
		Schema         string
		Table          string
		Columns        []string
		ForeignSchema  string
		ForeignTable   string
		ForeignColumns []string
		OnDelete       ReferentialAction
		OnUpdate       ReferentialAction
	}

	CreateForeignKey struct {
		ForeignKey ForeignKey
	}

	// DeleteForeignKey drops the named foreign key. When Definition is set the
	// change can be reversed.
	DeleteForeignKey struct {
		Schema     string
		Table      string
		Name       string
		Definition *ForeignKey
	}

	// Constraint is a primary key, unique or check constraint.
	Constraint struct {
		Name    string
		Type    ConstraintType
		Columns []string
		Check   string
	}

	CreateConstraint struct {
		Schema     string
		Table      string
		Constraint Constraint
	}

	// DeleteConstraint drops the named constraint. When Definition is set the
	// change can be reversed.
	DeleteConstraint struct {
		Schema     string
		Table      string
		Name       string
		Definition *Constraint
	}
)

func (*CreateForeignKey) Kind() Kind { return KindCreateForeignKey }
func (*DeleteForeignKey) Kind() Kind { return KindDeleteForeignKey }
func (*CreateConstraint) Kind() Kind { return KindCreateConstraint }
func (*DeleteConstraint) Kind() Kind { return KindDeleteConstraint }

func (*CreateForeignKey) sealed() {}
func (*DeleteForeignKey) sealed() {}
func (*CreateConstraint) sealed() {}
func (*DeleteConstraint) sealed() {}

func (fk ForeignKey) validate() []Violation {
	var v violations
	v.required("name", fk.Name)
	v.required("table", fk.Table)
	v.required("foreign_table", fk.ForeignTable)
	v.names("columns", fk.Columns)
	v.names("foreign_columns", fk.ForeignColumns)

	if len(fk.Columns) != len(fk.ForeignColumns) {
		v.add("foreign_columns", "expected %d columns, got %d", len(fk.Columns), len(fk.ForeignColumns))
	}

	for _, a := range []struct {
		field  string
		action ReferentialAction
	}{{"on_delete", fk.OnDelete}, {"on_update", fk.OnUpdate}} {
		switch a.action {
		case NoAction, Cascade, SetNull, SetDefault, Restrict:
		default:
			v.add(a.field, "unknown action %q", a.action)
		}
	}

	return v
}

func (c Constraint) validate() []Violation {
	var v violations
	v.required("name", c.Name)

	switch c.Type {
	case PrimaryKeyConstraint, UniqueConstraint:
		v.names("columns", c.Columns)
	case CheckConstraint:
		v.required("check", c.Check)
	default:
		v.add("type", "unknown constraint type %d", c.Type)
	}

	return v
}

func (c *CreateForeignKey) Validate() []Violation {
	var v violations
	v.merge("foreign_key", c.ForeignKey.validate())
	return v
}

func (c *CreateForeignKey) Reverse() Change {
	def := c.ForeignKey
	return &DeleteForeignKey{Schema: def.Schema, Table: def.Table, Name: def.Name, Definition: &def}
}

func (c *DeleteForeignKey) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("name", c.Name)
	if c.Definition != nil {
		v.merge("definition", c.Definition.validate())
	}
	return v
}

func (c *DeleteForeignKey) Reverse() Change {
	if c.Definition == nil {
		return nil
	}
	return &CreateForeignKey{ForeignKey: *c.Definition}
}

func (c *CreateConstraint) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.merge("constraint", c.Constraint.validate())
	return v
}

func (c *CreateConstraint) Reverse() Change {
	def := c.Constraint
	return &DeleteConstraint{Schema: c.Schema, Table: c.Table, Name: def.Name, Definition: &def}
}

func (c *DeleteConstraint) Validate() []Violation {
	var v violations
	v.required("table", c.Table)
	v.required("name", c.Name)
	if c.Definition != nil {
		v.merge("definition", c.Definition.validate())
	}
	return v
}

func (c *DeleteConstraint) Reverse() Change {
	if c.Definition == nil {
		return nil
	}
	return &CreateConstraint{Schema: c.Schema, Table: c.Table, Constraint: *c.Definition}
}
