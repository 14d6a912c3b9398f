package document

import (
	apperrors "github.com/allisson/privstore/internal/errors"
)

// Document codec error definitions.
var (
	// ErrInvalidDocumentID indicates a caller-supplied document without a
	// non-empty string id.
	ErrInvalidDocumentID = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid document id")

	// ErrMalformedDocument indicates an encrypted document whose structure is
	// invalid, or whose decrypted JSON object has no non-empty string id. A
	// body that does not parse as a JSON object fails with
	// masterkey.ErrMalformedJWE instead.
	ErrMalformedDocument = apperrors.Wrap(apperrors.ErrMalformed, "malformed encrypted document")
)
