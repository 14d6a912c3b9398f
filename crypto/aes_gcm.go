// Package crypto provides the narrow primitive surface used by the envelope
// and key-wrapping layers: AES-256-GCM with an explicit IV and a detached
// 16-byte tag, AES Key Wrap (RFC 3394), HMAC-SHA-256, PBKDF2-HMAC-SHA-512,
// and a CSPRNG.
//
// All keys are plain byte slices. Go has no non-extractable key handles, so
// the compensating control is zeroization: callers own key lifetimes and are
// expected to clear material with codec.Zero once a key goes out of use.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	apperrors "github.com/allisson/privstore/internal/errors"
)

const (
	// KeySize is the size in bytes of every symmetric key handled by this
	// package (AES-256 and HMAC-SHA-256 secrets).
	KeySize = 32

	// GCMNonceSize is the size in bytes of an AES-GCM IV.
	GCMNonceSize = 12

	// GCMTagSize is the size in bytes of an AES-GCM authentication tag.
	GCMTagSize = 16
)

// ErrInvalidKeySize indicates a key that is not exactly KeySize bytes.
var ErrInvalidKeySize = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid key size")

// ErrDecryptionFailed indicates an authentication failure during AES-GCM
// decryption or AES key unwrap. The specific cause is never disclosed to
// avoid padding-oracle-like signals.
var ErrDecryptionFailed = apperrors.Wrap(apperrors.ErrCryptoFailure, "decryption failed")

// AESGCMEncrypt encrypts plaintext with AES-256-GCM under the given key and
// 12-byte IV, returning the ciphertext and the detached 16-byte tag.
// Associated data is always empty. The caller supplies the IV so that nonce
// freshness stays an explicit invariant of the envelope layer.
func AESGCMEncrypt(key, iv, plaintext []byte) (ciphertext, tag []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != GCMNonceSize {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "iv must be 12 bytes")
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)

	// Seal appends the tag to the ciphertext; split it off so the envelope can
	// carry the two as separate fields.
	split := len(sealed) - GCMTagSize
	return sealed[:split], sealed[split:], nil
}

// AESGCMDecrypt decrypts ciphertext with AES-256-GCM under the given key, IV,
// and detached tag. Any authentication failure yields ErrDecryptionFailed.
func AESGCMDecrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != GCMNonceSize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "iv must be 12 bytes")
	}
	if len(tag) != GCMTagSize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "tag must be 16 bytes")
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	// A non-nil dst keeps an empty plaintext as an empty, non-nil slice.
	plaintext, err := aead.Open(make([]byte, 0, len(ciphertext)), iv, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	return cipher.NewGCM(block)
}
