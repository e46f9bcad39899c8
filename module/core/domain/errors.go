package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrOwnershipViolation = errors.New("access denied")
	ErrUnavailable        = errors.New("collaborator unavailable")
)

// ValidationError reports malformed input rejected before anything is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Unavailable marks err as a storage or lookup failure while keeping the
// cause in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
