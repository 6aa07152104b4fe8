package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for check requests.
var (
	// ErrMissingAddress is returned when token_address is empty.
	ErrMissingAddress = errors.New("token_address is required")

	// ErrUnsupportedChain is returned for chain keys not in the registry.
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrInvalidAddress is returned when the address does not match the chain's format.
	ErrInvalidAddress = errors.New("invalid token address")

	// ErrCheckFailed wraps internal failures while computing a result.
	ErrCheckFailed = errors.New("safety check failed")
)

// ValidationError is a caller-side input error.
type ValidationError struct {
	Err       error
	Value     string   // offending input
	Supported []string // supported chain keys, set for ErrUnsupportedChain
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnsupportedChain):
		return fmt.Sprintf("Unsupported chain: %s (supported: %s)", e.Value, strings.Join(e.Supported, ", "))
	case e.Value != "":
		return fmt.Sprintf("%v: %s", e.Err, e.Value)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a caller-side input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
