// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors are wrapped by the public
// packages into their own error values, so callers can match on either level.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all library modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformed indicates wire data is structurally invalid: a missing JWE
	// field, a rejected base64url token, a header with the wrong algorithm.
	ErrMalformed = errors.New("malformed data")

	// ErrCryptoFailure indicates an AEAD or key-wrap authentication failure.
	// The cause is never disclosed beyond this error.
	ErrCryptoFailure = errors.New("cryptographic operation failed")

	// ErrTransport indicates a transport-level failure that is not one of the
	// recognized outcomes (not found, conflict).
	ErrTransport = errors.New("transport failure")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
