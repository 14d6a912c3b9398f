package masterkey

import (
	validation "github.com/jellydator/validation"

	appvalidation "github.com/allisson/privstore/internal/validation"
)

// Wire format constants for the password-wrapped master key.
const (
	// PasswordWrapAlgorithm is the PBES2 JWE alg for the wrapped master key.
	PasswordWrapAlgorithm = "PBES2-HS512+A256KW"
	// PBKDF2Iterations is the p2c value used when wrapping. Any positive
	// value is accepted on read.
	PBKDF2Iterations = 4096
	// SaltSize is the size in bytes of the p2s salt generated when wrapping.
	SaltSize = 32
)

// WrappedKeyHeader is the header of a password-wrapped master key.
type WrappedKeyHeader struct {
	Alg string `json:"alg"`
	P2C int    `json:"p2c"`
	P2S string `json:"p2s"`
}

// WrappedKey is the PBES2 JWE carrying the master secret encrypted under a
// password-derived key. It is the only form in which the master secret ever
// leaves the process.
type WrappedKey struct {
	Header       WrappedKeyHeader `json:"header"`
	EncryptedKey string           `json:"encrypted_key"`
}

// Validate checks the structural invariants of a wrapped key read off the
// wire: the exact PBES2 algorithm, a positive iteration count, and base64url
// salt and encrypted key fields.
func (w *WrappedKey) Validate() error {
	err := validation.Errors{
		"header.alg": validation.Validate(
			w.Header.Alg,
			validation.Required,
			validation.In(PasswordWrapAlgorithm),
		),
		"header.p2c": validation.Validate(w.Header.P2C, validation.Required, validation.Min(1)),
		"header.p2s": validation.Validate(w.Header.P2S, validation.Required, appvalidation.Base64URL),
		"encrypted_key": validation.Validate(
			w.EncryptedKey,
			validation.Required,
			appvalidation.Base64URL,
		),
	}.Filter()
	if err != nil {
		return appvalidation.WrapFormatError(err)
	}

	return nil
}
