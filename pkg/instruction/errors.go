package instruction

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidAmount indicates a zero amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidDecimals indicates a mint with more than token.MaxDecimals decimals.
	ErrInvalidDecimals = errors.New("decimals must be between 0 and 9")
)

// InvalidAddressError is returned when an address argument fails to parse.
// Field names the argument that failed.
type InvalidAddressError struct {
	Field string
	Err   error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid %s address: %v", e.Field, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}
