package auctionerrors

import (
	"errors"
	"fmt"
)

// Lookup errors
var (
	ErrNotFound = errors.New("not found")
)

// Access errors
var (
	ErrForbidden       = errors.New("not allowed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrBadCredentials  = errors.New("invalid username or password")
)

// Validation errors. Every specialisation wraps ErrInvalid so callers can
// match either the family or the exact rule.
var (
	ErrInvalid         = errors.New("invalid input")
	ErrBidTooLow       = fmt.Errorf("%w: bid must exceed the current price", ErrInvalid)
	ErrListingClosed   = fmt.Errorf("%w: listing is closed", ErrInvalid)
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrInvalid)
	ErrUsernameTaken   = fmt.Errorf("%w: username already taken", ErrInvalid)
)

// Invalid reports a field-level validation failure.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, reason)
}
