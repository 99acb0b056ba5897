package resilience

import (
	"errors"
)

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// FatalError wraps an error that retrying cannot fix, such as a backend with
// no registered invoker. It stops a retry loop immediately.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps err as fatal.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// IsFatal reports whether err (or any error in its chain) is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsTransient reports whether err carries a TransientError. A FatalError
// anywhere in the chain wins.
func IsTransient(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	var te *TransientError
	return errors.As(err, &te)
}

// AsTransient returns err unchanged if it already carries a TransientError,
// otherwise wraps it in one. Nil stays nil.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return NewTransientError(err, 0)
}
