package masterkey

import (
	validation "github.com/jellydator/validation"

	appvalidation "github.com/allisson/privstore/internal/validation"
)

// Wire format constants for the document envelope.
const (
	// KeyWrapAlgorithm is the JWE alg for wrapping per-document content keys.
	KeyWrapAlgorithm = "A256KW"
	// ContentAlgorithm is the JWE enc for the document body.
	ContentAlgorithm = "A256GCM"
)

// JWEHeader is the unprotected header of a document envelope.
type JWEHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
}

// JWE is the envelope for a single encrypted document body.
//
// The header is unprotected and fixed to {alg: A256KW, enc: A256GCM}:
// EncryptedKey carries the AES-KW-wrapped content key, IV the 12-byte GCM
// nonce, Ciphertext the GCM output without its tag, and Tag the detached
// 16-byte tag. All binary fields are unpadded base64url.
type JWE struct {
	Unprotected  JWEHeader `json:"unprotected"`
	EncryptedKey string    `json:"encrypted_key"`
	IV           string    `json:"iv"`
	Ciphertext   string    `json:"ciphertext"`
	Tag          string    `json:"tag"`
}

// Validate checks the structural invariants of the envelope: the exact
// header constants and the presence and base64url shape of every field.
// Ciphertext may be empty (an empty plaintext is legal); it still has to be
// valid base64url when present.
func (j *JWE) Validate() error {
	err := validation.Errors{
		"unprotected.alg": validation.Validate(
			j.Unprotected.Alg,
			validation.Required,
			validation.In(KeyWrapAlgorithm),
		),
		"unprotected.enc": validation.Validate(
			j.Unprotected.Enc,
			validation.Required,
			validation.In(ContentAlgorithm),
		),
		"encrypted_key": validation.Validate(
			j.EncryptedKey,
			validation.Required,
			appvalidation.Base64URL,
		),
		"iv":         validation.Validate(j.IV, validation.Required, appvalidation.Base64URL),
		"ciphertext": validation.Validate(j.Ciphertext, appvalidation.Base64URL),
		"tag":        validation.Validate(j.Tag, validation.Required, appvalidation.Base64URL),
	}.Filter()
	if err != nil {
		return appvalidation.WrapFormatError(err)
	}

	return nil
}
