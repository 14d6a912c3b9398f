// Package codec provides the byte-level encodings shared by the envelope and
// blinding layers: strict unpadded base64url and zeroization of sensitive
// buffers.
//
// Base64url decoding is strict on purpose. Wire data is only authenticated by
// AEAD tags after it has been decoded, so a malformed token must fail here,
// early and with a typed error, instead of producing garbage bytes that fail
// later with a misleading authentication error.
package codec

import (
	"encoding/base64"
	"strings"

	apperrors "github.com/allisson/privstore/internal/errors"
)

// ErrInvalidBase64URL indicates a token that is not strict unpadded base64url:
// it contains padding, bytes outside the URL-safe alphabet, or non-canonical
// trailing bits.
var ErrInvalidBase64URL = apperrors.Wrap(apperrors.ErrMalformed, "invalid base64url")

// strictBase64URL rejects non-canonical encodings (trailing bits must be zero).
var strictBase64URL = base64.RawURLEncoding.Strict()

// EncodeBase64URL encodes b as unpadded URL-safe base64.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL decodes a strict unpadded URL-safe base64 string.
// Padding characters, bytes outside the alphabet, and non-canonical trailing
// bits are all rejected with ErrInvalidBase64URL.
func DecodeBase64URL(s string) ([]byte, error) {
	// RawURLEncoding treats '=' as a non-alphabet byte, but check explicitly so
	// padded input fails regardless of where the padding sits.
	if strings.ContainsRune(s, '=') {
		return nil, ErrInvalidBase64URL
	}

	b, err := strictBase64URL.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidBase64URL
	}

	return b, nil
}
