package storage

import (
	"errors"
	"fmt"
)

// ErrUnsupportedScheme is returned when no backend is registered for a URL's scheme.
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// ErrBackendUnavailable is returned for every operation on a backend that
// was disabled after a permanent error.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// SchemeError describes a failure to dispatch an operation. Err is
// ErrUnsupportedScheme or ErrBackendUnavailable. Cause is the permanent
// backend error which disabled the backend, if this call hit it.
type SchemeError struct {
	Scheme string
	URL    string
	Err    error
	Cause  error
}

func (e *SchemeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v: %v", e.Scheme, e.URL, e.Err, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Scheme, e.URL, e.Err)
}

// Unwrap returns the sentinel error and the cause.
func (e *SchemeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// TransientError wraps a backend error that isn't permanent. The backend
// stays enabled; callers may retry.
type TransientError struct {
	Scheme string
	Op     string
	URL    string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the backend error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient returns true if err is, or wraps, a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// ErrUnsupportedProtocol is returned by a backend when a url's
// protocol is unsupported by that backend
type ErrUnsupportedProtocol struct {
	backend string
}

func (e *ErrUnsupportedProtocol) Error() string {
	return fmt.Sprintf("%s: unsupported protocol", e.backend)
}

// ErrInvalidURL is returned by a backend when a url's format is invalid.
type ErrInvalidURL struct {
	backend string
}

func (e *ErrInvalidURL) Error() string {
	return fmt.Sprintf("%s: invalid url", e.backend)
}
