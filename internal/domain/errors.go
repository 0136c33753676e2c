package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownField signals a filter against a field absent from both the
	// custom-field table and the schema.
	ErrUnknownField = errors.New("field does not exist")
	// ErrUnsupportedFilter signals an unprocessable filter descriptor: a value
	// that cannot be cast to the field's type, or an operator the field's type
	// does not support.
	ErrUnsupportedFilter = errors.New("unsupported filter")
	// ErrProviderFailure signals a messaging provider failure.
	ErrProviderFailure = errors.New("provider failure")
	// ErrInvalidRecipient signals a lead without a usable address for the
	// requested notification channel.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// ProviderError carries the messaging provider's error details for a failed
// delivery. It unwraps to ErrProviderFailure.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProviderFailure }
