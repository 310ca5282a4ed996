package core

import (
	"errors"
	"fmt"
)

// Sentinel errors of the order/inventory workflow. Every placement failure is
// one of these (or wraps one); adapters convert them into caller-presentable
// reason strings and nothing propagates past that boundary as a bare fault.
var (
	// ErrNotFound: the item reference no longer exists or no longer qualifies
	// as sellable. Recoverable: the caller re-lists options.
	ErrNotFound = errors.New("item not found or no longer for sale")

	// ErrInsufficientStock: a bulk debit would exceed the available quantity.
	// Recoverable: the caller re-enters the quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStaleState: a unique item was sold between quote and commit.
	// Recoverable only by restarting the selection.
	ErrStaleState = errors.New("item already sold")
)

// InvalidInputError reports a malformed customer name, phone, or quantity.
// Recoverable: the caller re-prompts with Reason.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
