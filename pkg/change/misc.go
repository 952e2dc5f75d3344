package change

import "context"

type (
	// ExecuteSQL runs SQL text verbatim. The text is split into statements with
	// the dialect's splitter, so it may hold a whole script.
	ExecuteSQL struct {
		SQL         string
		Description string
	}

	CreateSchema struct {
		Name string
	}

	DeleteSchema struct {
		Name string
	}

	// CreateSequence creates a sequence. Nil values and a zero IncrementBy use
	// the database defaults.
	CreateSequence struct {
		Schema      string
		Name        string
		StartWith   *int64
		IncrementBy int64
		MinValue    *int64
		MaxValue    *int64
		Cache       *int64
		Cycle       bool
	}

	DeleteSequence struct {
		Schema string
		Name   string
	}

	// Perform runs Fn against the database in place of generated SQL. It is the
	// escape hatch for data transformations that cannot be expressed as
	// descriptors.
	Perform struct {
		Description string
		Fn          func(ctx context.Context, exec Executor) error
	}
)

func (*ExecuteSQL) Kind() Kind     { return KindExecuteSQL }
func (*CreateSchema) Kind() Kind   { return KindCreateSchema }
func (*DeleteSchema) Kind() Kind   { return KindDeleteSchema }
func (*CreateSequence) Kind() Kind { return KindCreateSequence }
func (*DeleteSequence) Kind() Kind { return KindDeleteSequence }
func (*Perform) Kind() Kind        { return KindPerform }

func (*ExecuteSQL) sealed()     {}
func (*CreateSchema) sealed()   {}
func (*DeleteSchema) sealed()   {}
func (*CreateSequence) sealed() {}
func (*DeleteSequence) sealed() {}
func (*Perform) sealed()        {}

func (c *ExecuteSQL) Validate() []Violation {
	var v violations
	v.required("sql", c.SQL)
	return v
}

// Reverse returns nil: arbitrary SQL has no mechanical inverse.
func (c *ExecuteSQL) Reverse() Change { return nil }

func (c *CreateSchema) Validate() []Violation {
	var v violations
	v.required("name", c.Name)
	return v
}

func (c *CreateSchema) Reverse() Change { return &DeleteSchema{Name: c.Name} }

func (c *DeleteSchema) Validate() []Violation {
	var v violations
	v.required("name", c.Name)
	return v
}

func (c *DeleteSchema) Reverse() Change { return nil }

func (c *CreateSequence) Validate() []Violation {
	var v violations
	v.required("name", c.Name)

	if c.MinValue != nil && c.MaxValue != nil && *c.MinValue > *c.MaxValue {
		v.add("min_value", "must not exceed max_value")
	}

	if c.StartWith != nil {
		if c.MinValue != nil && *c.StartWith < *c.MinValue {
			v.add("start_with", "must not be below min_value")
		}
		if c.MaxValue != nil && *c.StartWith > *c.MaxValue {
			v.add("start_with", "must not exceed max_value")
		}
	}

	if c.Cache != nil && *c.Cache < 1 {
		v.add("cache", "must be positive")
	}

	return v
}

func (c *CreateSequence) Reverse() Change {
	return &DeleteSequence{Schema: c.Schema, Name: c.Name}
}

func (c *DeleteSequence) Validate() []Violation {
	var v violations
	v.required("name", c.Name)
	return v
}

func (c *DeleteSequence) Reverse() Change { return nil }

func (c *Perform) Validate() []Violation {
	var v violations
	if c.Fn == nil {
		v.add("fn", "is required")
	}
	return v
}

// Reverse returns nil: the effect of Fn is opaque.
func (c *Perform) Reverse() Change { return nil }
