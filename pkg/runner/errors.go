package runner

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type (
	// ExecutionError is returned when a statement fails against the target.
	// SQL holds the failing statement (empty for Perform callbacks).
	ExecutionError struct {
		Version int64
		SQL     string
		Cause   error

		// Manual is set when the migration ran outside a transaction, so the
		// statements before the failure stay applied and need attention.
		Manual bool
	}

	// OrderingWarning reports a version that will be applied out of order:
	// either discovered before a lower version, or pending below the highest
	// applied version.
	OrderingWarning struct {
		Version int64
		Reason  string
	}

	// OrderingError aborts a strict-ordering run before any work is done.
	OrderingError struct {
		Warnings []OrderingWarning
	}
)

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "migration %d failed", e.Version)
	if e.Manual {
		b.WriteString(" outside a transaction (manual intervention required)")
	}
	if e.SQL != "" {
		fmt.Fprintf(&b, " executing %q", e.SQL)
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func (w OrderingWarning) String() string {
	return fmt.Sprintf("version %d %s", w.Version, w.Reason)
}

func (e *OrderingError) Error() string {
	msgs := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		msgs[i] = w.String()
	}
	return "migrations out of order: " + strings.Join(msgs, "; ")
}

// IsExecution reports whether err wraps an *ExecutionError.
func IsExecution(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e)
}
