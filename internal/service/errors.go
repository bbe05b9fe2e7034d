package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password so callers cannot tell which one happened.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ValidationError wraps the field-level failures for a request payload.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Fields returns the underlying validator errors, if any.
func (e *ValidationError) Fields() validator.ValidationErrors {
	var ve validator.ValidationErrors
	if errors.As(e.Err, &ve) {
		return ve
	}
	return nil
}
