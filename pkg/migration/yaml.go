package migration

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/columnspec"
	"gopkg.in/yaml.v3"
)

type (
	yamlMigration struct {
		Description string `yaml:"description"`
		Transaction string `yaml:"transaction"`
		Breaking    bool   `yaml:"breaking"`
		Up          steps  `yaml:"up"`
		Down        *steps `yaml:"down"`
	}

	steps []change.Change

	// changeDoc is the YAML form of one change.
	changeDoc interface {
		build() (change.Change, error)
	}

	row change.Row

	tableDoc struct {
		Schema   string         `yaml:"schema"`
		Name     string         `yaml:"name"`
		Columns  []string       `yaml:"columns"`
		Features map[string]any `yaml:"features"`
	}

	tableNameDoc struct {
		Schema string `yaml:"schema"`
		Name   string `yaml:"name"`
		To     string `yaml:"to"`
	}

	columnDoc struct {
		Schema string `yaml:"schema"`
		Table  string `yaml:"table"`
		Column string `yaml:"column"`
	}

	alterColumnDoc columnDoc

	columnNameDoc struct {
		Schema string `yaml:"schema"`
		Table  string `yaml:"table"`
		Name   string `yaml:"name"`
		To     string `yaml:"to"`
	}

	deleteColumnDoc columnNameDoc

	indexDoc struct {
		Schema   string         `yaml:"schema"`
		Table    string         `yaml:"table"`
		Name     string         `yaml:"name"`
		Columns  []string       `yaml:"columns"`
		Unique   bool           `yaml:"unique"`
		Features map[string]any `yaml:"features"`
	}

	namedDoc struct {
		Schema string `yaml:"schema"`
		Table  string `yaml:"table"`
		Name   string `yaml:"name"`
	}

	deleteIndexDoc      namedDoc
	deleteForeignKeyDoc namedDoc
	deleteConstraintDoc namedDoc

	foreignKeyDoc struct {
		Schema     string   `yaml:"schema"`
		Table      string   `yaml:"table"`
		Name       string   `yaml:"name"`
		Columns    []string `yaml:"columns"`
		References struct {
			Schema  string   `yaml:"schema"`
			Table   string   `yaml:"table"`
			Columns []string `yaml:"columns"`
		} `yaml:"references"`
		OnDelete string `yaml:"on_delete"`
		OnUpdate string `yaml:"on_update"`
	}

	constraintDoc struct {
		Schema  string   `yaml:"schema"`
		Table   string   `yaml:"table"`
		Name    string   `yaml:"name"`
		Type    string   `yaml:"type"`
		Columns []string `yaml:"columns"`
		Check   string   `yaml:"check"`
	}

	insertDoc struct {
		Schema string `yaml:"schema"`
		Table  string `yaml:"table"`
		Rows   []row  `yaml:"rows"`
	}

	updateDoc struct {
		Schema  string `yaml:"schema"`
		Table   string `yaml:"table"`
		Set     row    `yaml:"set"`
		Where   row    `yaml:"where"`
		AllRows bool   `yaml:"all_rows"`
	}

	deleteDoc struct {
		Schema  string `yaml:"schema"`
		Table   string `yaml:"table"`
		Where   []row  `yaml:"where"`
		AllRows bool   `yaml:"all_rows"`
	}

	upsertDoc struct {
		Schema     string   `yaml:"schema"`
		Table      string   `yaml:"table"`
		Rows       []row    `yaml:"rows"`
		Match      []string `yaml:"match"`
		Update     []string `yaml:"update"`
		InsertOnly bool     `yaml:"insert_only"`
	}

	sqlDoc          string
	createSchemaDoc string
	deleteSchemaDoc string

	sequenceDoc struct {
		Schema      string `yaml:"schema"`
		Name        string `yaml:"name"`
		StartWith   *int64 `yaml:"start_with"`
		IncrementBy int64  `yaml:"increment_by"`
		MinValue    *int64 `yaml:"min_value"`
		MaxValue    *int64 `yaml:"max_value"`
		Cache       *int64 `yaml:"cache"`
		Cycle       bool   `yaml:"cycle"`
	}

	deleteSequenceDoc struct {
		Schema string `yaml:"schema"`
		Name   string `yaml:"name"`
	}
)

var changeDocs = map[string]func() changeDoc{
	"create_table":       func() changeDoc { return &tableDoc{} },
	"delete_table":       func() changeDoc { return &deleteTableDoc{} },
	"rename_table":       func() changeDoc { return &tableNameDoc{} },
	"add_column":         func() changeDoc { return &columnDoc{} },
	"alter_column":       func() changeDoc { return &alterColumnDoc{} },
	"rename_column":      func() changeDoc { return &columnNameDoc{} },
	"delete_column":      func() changeDoc { return &deleteColumnDoc{} },
	"create_index":       func() changeDoc { return &indexDoc{} },
	"delete_index":       func() changeDoc { return &deleteIndexDoc{} },
	"add_foreign_key":    func() changeDoc { return &foreignKeyDoc{} },
	"delete_foreign_key": func() changeDoc { return &deleteForeignKeyDoc{} },
	"add_constraint":     func() changeDoc { return &constraintDoc{} },
	"delete_constraint":  func() changeDoc { return &deleteConstraintDoc{} },
	"insert":             func() changeDoc { return &insertDoc{} },
	"update":             func() changeDoc { return &updateDoc{} },
	"delete":             func() changeDoc { return &deleteDoc{} },
	"upsert":             func() changeDoc { return &upsertDoc{} },
	"sql":                func() changeDoc { return new(sqlDoc) },
	"create_schema":      func() changeDoc { return new(createSchemaDoc) },
	"delete_schema":      func() changeDoc { return new(deleteSchemaDoc) },
	"create_sequence":    func() changeDoc { return &sequenceDoc{} },
	"delete_sequence":    func() changeDoc { return &deleteSequenceDoc{} },
}

// LoadYAML decodes a declarative migration:
//
//	description: create users
//	transaction: automatic
//	up:
//	  - create_table:
//	      name: users
//	      columns:
//	        - id int32 primary key identity
//	        - name string(50)
//	  - insert:
//	      table: users
//	      rows:
//	        - {name: Ann}
//
// Without a down section the up changes are reversed mechanically.
func LoadYAML(version int64, description string, data []byte) (*Migration, error) {
	var doc yamlMigration
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML migration")
	}

	mode, err := ParseTransactionMode(doc.Transaction)
	if err != nil {
		return nil, err
	}

	if doc.Description != "" {
		description = doc.Description
	}

	m := &Migration{
		Version:     version,
		Description: description,
		Transaction: mode,
		Breaking:    doc.Breaking,
		Up:          staticBody(doc.Up),
	}
	if doc.Down != nil {
		m.Down = staticBody(*doc.Down)
	}

	return m, nil
}

func staticBody(changes []change.Change) Body {
	return func(_ context.Context, b *Builder) error {
		b.Add(changes...)
		return nil
	}
}

func (s *steps) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return errors.Errorf("line %d: expected a list of changes", n.Line)
	}

	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return errors.Errorf("line %d: each change must be a mapping with exactly one key", item.Line)
		}

		key, body := item.Content[0], item.Content[1]
		factory, ok := changeDocs[key.Value]
		if !ok {
			return errors.Errorf("line %d: unknown change %q", key.Line, key.Value)
		}

		doc := factory()
		if err := body.Decode(doc); err != nil {
			return errors.Wrapf(err, "line %d: %s", key.Line, key.Value)
		}

		c, err := doc.build()
		if err != nil {
			return errors.Wrapf(err, "line %d: %s", key.Line, key.Value)
		}
		*s = append(*s, c)
	}

	return nil
}

// UnmarshalYAML keeps the column order of the mapping.
func (r *row) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: a row must be a mapping of column to value", n.Line)
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return errors.Wrapf(err, "line %d: column %s", n.Content[i].Line, n.Content[i].Value)
		}
		*r = append(*r, change.Field{Column: n.Content[i].Value, Value: v})
	}

	return nil
}

func rows(rs []row) []change.Row {
	out := make([]change.Row, len(rs))
	for i, r := range rs {
		out[i] = change.Row(r)
	}
	return out
}

// features converts decoded YAML values to the documented feature types.
func features(m map[string]any) change.Features {
	var f change.Features
	for name, v := range m {
		if list, ok := v.([]any); ok {
			strs := make([]string, len(list))
			for i, item := range list {
				s, _ := item.(string)
				strs[i] = s
			}
			v = strs
		}
		f = f.With(change.Feature(name), v)
	}
	return f
}

func columns(specs []string) ([]change.Column, error) {
	cols := make([]change.Column, len(specs))
	for i, s := range specs {
		col, err := columnspec.Parse(s)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

func (d *tableDoc) build() (change.Change, error) {
	cols, err := columns(d.Columns)
	if err != nil {
		return nil, err
	}
	return &change.CreateTable{Schema: d.Schema, Table: d.Name, Columns: cols, Features: features(d.Features)}, nil
}

type deleteTableDoc tableNameDoc

func (d *deleteTableDoc) build() (change.Change, error) {
	return &change.DeleteTable{Schema: d.Schema, Table: d.Name}, nil
}

func (d *tableNameDoc) build() (change.Change, error) {
	return &change.RenameTable{Schema: d.Schema, Table: d.Name, NewName: d.To}, nil
}

func (d *columnDoc) build() (change.Change, error) {
	col, err := columnspec.Parse(d.Column)
	if err != nil {
		return nil, err
	}
	return &change.CreateColumn{Schema: d.Schema, Table: d.Table, Column: col}, nil
}

func (d *alterColumnDoc) build() (change.Change, error) {
	col, err := columnspec.Parse(d.Column)
	if err != nil {
		return nil, err
	}
	return &change.AlterColumn{Schema: d.Schema, Table: d.Table, Column: col}, nil
}

func (d *columnNameDoc) build() (change.Change, error) {
	return &change.RenameColumn{Schema: d.Schema, Table: d.Table, Column: d.Name, NewName: d.To}, nil
}

func (d *deleteColumnDoc) build() (change.Change, error) {
	return &change.DeleteColumn{Schema: d.Schema, Table: d.Table, Column: d.Name}, nil
}

// build parses index columns written as "name" or "name desc".
func (d *indexDoc) build() (change.Change, error) {
	cols := make([]change.IndexColumn, len(d.Columns))
	for i, c := range d.Columns {
		fields := strings.Fields(c)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, errors.Errorf("invalid index column %q", c)
		}

		cols[i] = change.IndexColumn{Name: fields[0]}
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "asc":
			case "desc":
				cols[i].Direction = change.Descending
			default:
				return nil, errors.Errorf("invalid index column direction %q", fields[1])
			}
		}
	}

	return &change.CreateIndex{
		Schema: d.Schema,
		Table:  d.Table,
		Index:  change.Index{Name: d.Name, Columns: cols, Unique: d.Unique, Features: features(d.Features)},
	}, nil
}

func (d *deleteIndexDoc) build() (change.Change, error) {
	return &change.DeleteIndex{Schema: d.Schema, Table: d.Table, Name: d.Name}, nil
}

// referentialAction accepts "cascade", "set_null", "set default" and friends.
func referentialAction(s string) change.ReferentialAction {
	action := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	if action == "NO ACTION" {
		return change.NoAction
	}
	return change.ReferentialAction(action)
}

func (d *foreignKeyDoc) build() (change.Change, error) {
	return &change.CreateForeignKey{ForeignKey: change.ForeignKey{
		Name:           d.Name,
		Schema:         d.Schema,
		Table:          d.Table,
		Columns:        d.Columns,
		ForeignSchema:  d.References.Schema,
		ForeignTable:   d.References.Table,
		ForeignColumns: d.References.Columns,
		OnDelete:       referentialAction(d.OnDelete),
		OnUpdate:       referentialAction(d.OnUpdate),
	}}, nil
}

func (d *deleteForeignKeyDoc) build() (change.Change, error) {
	return &change.DeleteForeignKey{Schema: d.Schema, Table: d.Table, Name: d.Name}, nil
}

func (d *constraintDoc) build() (change.Change, error) {
	var typ change.ConstraintType
	switch strings.ToLower(d.Type) {
	case "primary_key":
		typ = change.PrimaryKeyConstraint
	case "unique":
		typ = change.UniqueConstraint
	case "check":
		typ = change.CheckConstraint
	default:
		return nil, errors.Errorf("unknown constraint type %q", d.Type)
	}

	return &change.CreateConstraint{
		Schema:     d.Schema,
		Table:      d.Table,
		Constraint: change.Constraint{Name: d.Name, Type: typ, Columns: d.Columns, Check: d.Check},
	}, nil
}

func (d *deleteConstraintDoc) build() (change.Change, error) {
	return &change.DeleteConstraint{Schema: d.Schema, Table: d.Table, Name: d.Name}, nil
}

func (d *insertDoc) build() (change.Change, error) {
	return &change.InsertRows{Schema: d.Schema, Table: d.Table, Rows: rows(d.Rows)}, nil
}

func (d *updateDoc) build() (change.Change, error) {
	return &change.UpdateRows{Schema: d.Schema, Table: d.Table, Set: change.Row(d.Set), Where: change.Row(d.Where), AllRows: d.AllRows}, nil
}

func (d *deleteDoc) build() (change.Change, error) {
	return &change.DeleteRows{Schema: d.Schema, Table: d.Table, Where: rows(d.Where), AllRows: d.AllRows}, nil
}

func (d *upsertDoc) build() (change.Change, error) {
	return &change.UpsertRows{
		Schema:        d.Schema,
		Table:         d.Table,
		Rows:          rows(d.Rows),
		MatchColumns:  d.Match,
		UpdateColumns: d.Update,
		InsertOnly:    d.InsertOnly,
	}, nil
}

func (d *sqlDoc) build() (change.Change, error) {
	return &change.ExecuteSQL{SQL: string(*d)}, nil
}

func (d *createSchemaDoc) build() (change.Change, error) {
	return &change.CreateSchema{Name: string(*d)}, nil
}

func (d *deleteSchemaDoc) build() (change.Change, error) {
	return &change.DeleteSchema{Name: string(*d)}, nil
}

func (d *sequenceDoc) build() (change.Change, error) {
	return &change.CreateSequence{
		Schema:      d.Schema,
		Name:        d.Name,
		StartWith:   d.StartWith,
		IncrementBy: d.IncrementBy,
		MinValue:    d.MinValue,
		MaxValue:    d.MaxValue,
		Cache:       d.Cache,
		Cycle:       d.Cycle,
	}, nil
}

func (d *deleteSequenceDoc) build() (change.Change, error) {
	return &change.DeleteSequence{Schema: d.Schema, Name: d.Name}, nil
}
