package change

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies a change variant.
type Kind string

const (
	KindCreateTable      Kind = "CreateTable"
	KindDeleteTable      Kind = "DeleteTable"
	KindRenameTable      Kind = "RenameTable"
	KindCreateColumn     Kind = "CreateColumn"
	KindAlterColumn      Kind = "AlterColumn"
	KindRenameColumn     Kind = "RenameColumn"
	KindDeleteColumn     Kind = "DeleteColumn"
	KindCreateIndex      Kind = "CreateIndex"
	KindDeleteIndex      Kind = "DeleteIndex"
	KindCreateForeignKey Kind = "CreateForeignKey"
	KindDeleteForeignKey Kind = "DeleteForeignKey"
	KindCreateConstraint Kind = "CreateConstraint"
	KindDeleteConstraint Kind = "DeleteConstraint"
	KindInsertRows       Kind = "InsertRows"
	KindUpdateRows       Kind = "UpdateRows"
	KindDeleteRows       Kind = "DeleteRows"
	KindUpsertRows       Kind = "UpsertRows"
	KindExecuteSQL       Kind = "ExecuteSQL"
	KindCreateSchema     Kind = "CreateSchema"
	KindDeleteSchema     Kind = "DeleteSchema"
	KindCreateSequence   Kind = "CreateSequence"
	KindDeleteSequence   Kind = "DeleteSequence"
	KindPerform          Kind = "Perform"
)

type (
	// Change is a dialect independent description of one schema or data
	// operation. The set of implementations is closed; every variant lives in
	// this package.
	//
	// Changes hold data only. They are turned into SQL by a dialect generator
	// and never execute themselves.
	Change interface {
		// Kind returns the variant identifier.
		Kind() Kind

		// Validate returns the structural violations of the change. An empty
		// result means the change is valid. Validate never panics.
		Validate() []Violation

		// Reverse returns the change undoing this one, or nil when no mechanical
		// inverse exists and a hand written down migration is required.
		Reverse() Change

		sealed()
	}

	// Executor runs ad-hoc SQL for Perform changes.
	Executor interface {
		Exec(ctx context.Context, query string, args ...any) error
		Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	// Violation describes one broken invariant of a change.
	Violation struct {
		// Field is the offending field path (e.g. "columns[1].name")
		Field string

		// Message describes the problem
		Message string
	}

	// ValidationError is returned when a change fails validation. It is raised
	// before generation so invalid changes never reach the database.
	ValidationError struct {
		Kind       Kind
		Violations []Violation
	}
)

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}

	return v.Field + ": " + v.Message
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}

	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(msgs, "; "))
}

// Validate returns a *ValidationError when c has violations, nil otherwise.
//
// Example usage:
//
//	if err := change.Validate(c); err != nil {
//		var verr *change.ValidationError
//		if errors.As(err, &verr) {
//			for _, v := range verr.Violations {
//				fmt.Println(v)
//			}
//		}
//	}
func Validate(c Change) error {
	if IsNil(c) {
		return &ValidationError{Violations: []Violation{{Message: "change is nil"}}}
	}

	if v := c.Validate(); len(v) > 0 {
		return &ValidationError{Kind: c.Kind(), Violations: v}
	}

	return nil
}

// IsNil reports whether c is nil or a typed nil pointer.
func IsNil(c Change) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

type violations []Violation

func (v *violations) add(field, format string, args ...any) {
	*v = append(*v, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *violations) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

func (v *violations) names(field string, names []string) {
	if len(names) == 0 {
		v.add(field, "at least one column is required")
		return
	}

	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		v.required(fmt.Sprintf("%s[%d]", field, i), n)
		if _, ok := seen[n]; ok {
			v.add(fmt.Sprintf("%s[%d]", field, i), "duplicate column %q", n)
		}
		seen[n] = struct{}{}
	}
}

func (v *violations) merge(prefix string, other []Violation) {
	for _, o := range other {
		field := prefix
		if o.Field != "" {
			field = prefix + "." + o.Field
		}
		*v = append(*v, Violation{Field: field, Message: o.Message})
	}
}
