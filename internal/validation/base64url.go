// Package validation provides custom validation rules for the library.
package validation

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/privstore/codec"
)

// Base64URL validates that a string is strict unpadded base64url data.
var Base64URL = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64url_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := codec.DecodeBase64URL(s); err != nil {
		return validation.NewError("validation_base64url", "must be valid unpadded base64url data")
	}
	return nil
})
