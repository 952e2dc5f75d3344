package dialect

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/change"
)

// ErrUnsupported is matched (errors.Is) by every CompatibilityError.
var ErrUnsupported = errors.New("operation not supported by dialect")

// CompatibilityError is returned when a dialect cannot express a change. The
// generator never emits approximate SQL in its place; the runner's
// compatibility policy decides whether the run aborts or skips the change.
type CompatibilityError struct {
	Dialect Dialect
	Kind    change.Kind
	Reason  string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("%s cannot express %s: %s", e.Dialect, e.Kind, e.Reason)
}

func (e *CompatibilityError) Unwrap() error { return ErrUnsupported }

// IsCompatibility reports whether err is (or wraps) a CompatibilityError.
func IsCompatibility(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
