package generator

import (
	"errors"
	"fmt"
)

var ErrInvalidContentType = errors.New("invalid content type. Choose 'blog' or 'social media'")

// ValidationError rejects a request before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// TransportError wraps whatever the model call returned; callers show it verbatim.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err should be shown as a bad input rather than a failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrInvalidContentType) || errors.As(err, &ve)
}

func lengthReason(limit int) string {
	return fmt.Sprintf("must be at most %d characters", limit)
}
