package masterkey

import (
	"github.com/allisson/privstore/crypto"
	apperrors "github.com/allisson/privstore/internal/errors"
)

// Master key error definitions.
//
// Authentication failures and structural defects are kept strictly apart:
// a tampered or wrong-key envelope is ErrDecryptionFailed with no further
// detail, while a missing field or unexpected header is a malformed-data
// error. Collapsing the two would hand an attacker an oracle.
var (
	// ErrMalformedJWE indicates a document envelope whose structure is invalid:
	// wrong alg/enc header, missing field, rejected base64url token, or an iv
	// or tag of the wrong length.
	ErrMalformedJWE = apperrors.Wrap(apperrors.ErrMalformed, "malformed JWE")

	// ErrMalformedWrappedKey indicates a password-wrapped master key whose
	// structure is invalid: wrong alg header, non-positive p2c, or fields that
	// are not valid base64url.
	ErrMalformedWrappedKey = apperrors.Wrap(apperrors.ErrMalformed, "malformed wrapped master key")

	// ErrDecryptionFailed indicates an AEAD or key-wrap authentication failure.
	// It never distinguishes the cause.
	ErrDecryptionFailed = crypto.ErrDecryptionFailed
)
