package combat

import (
	"errors"
	"fmt"
)

// Error taxonomy for action resolution. Validation and state errors are
// rejected before any encounter mutation, so callers may always retry them.
var (
	// ErrValidation marks malformed or missing request fields.
	ErrValidation = errors.New("validation failed")
	// ErrState marks requests that reference missing state, such as an
	// unknown target or no active encounter.
	ErrState = errors.New("invalid state")
	// ErrImpossibleAction marks actions the rules cannot perform, such as
	// an out-of-range attack. Terminal for the single action only.
	ErrImpossibleAction = errors.New("impossible action")
)

// ValidationError wraps ErrValidation with a reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// StateError wraps ErrState with a reason.
func StateError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrState}, args...)...)
}

// ImpossibleActionError wraps ErrImpossibleAction with a reason the caller
// can surface as narration.
func ImpossibleActionError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrImpossibleAction}, args...)...)
}
