// Package validation provides custom validation rules for the library.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/privstore/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// WrapFormatError wraps validation errors on wire data as domain ErrMalformed.
// Caller misuse is ErrInvalidInput; a structurally invalid envelope coming off
// the wire is ErrMalformed.
func WrapFormatError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrMalformed, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
