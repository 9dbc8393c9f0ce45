package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("recipe was modified by another request")

	// ErrAuth is the parent of every authentication or authorization failure.
	ErrAuth            = errors.New("not authorized")
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrAuth)
	ErrNotOwner        = fmt.Errorf("%w: only the author may modify this recipe", ErrAuth)
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrAuth)
	ErrInvalidLogin    = fmt.Errorf("%w: invalid credentials", ErrAuth)

	ErrMedia        = errors.New("media store failure")
	ErrStoreTimeout = fmt.Errorf("%w: timed out, retry later", ErrMedia)

	ErrUserExists = errors.New("user already exists")
)

// ValidationError describes a rejected field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MediaError wraps a failed media store call.
type MediaError struct {
	Op   string
	Name string
	Err  error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap exposes both the store error and ErrMedia (or ErrStoreTimeout).
func (e *MediaError) Unwrap() []error {
	return []error{e.Err, ErrMedia}
}
