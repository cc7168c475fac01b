package sqlgen

import (
	"errors"
	"fmt"
)

// ErrUnsupported matches an UnsupportedError.
var ErrUnsupported = errors.New("construct has no relational translation")

// UnsupportedError is returned when a verified construct has no relational
// representation. It aborts the whole translation.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string { return e.Message }

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

func unsupported(format string, args ...any) error {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}

// ViewCollisionError is returned when two definitions map to the same view
// name, such as A.B_C and A_B.C.
type ViewCollisionError struct {
	View   string
	First  string
	Second string
}

func (e *ViewCollisionError) Error() string {
	return fmt.Sprintf("definitions %s and %s both map to view %s", e.First, e.Second, e.View)
}
