// Package masterkey implements the root of the client-side encryption
// hierarchy: a 32-byte master HMAC secret from which two single-purpose
// subkeys are derived.
//
// The KEK participates only in AES Key Wrap of fresh per-document content
// keys, which randomizes through caller-supplied IVs and CEKs; the index key
// exists only for deterministic blinding. The two usages have incompatible
// requirements (nonce freshness vs. determinism), which is why they never
// share a key. The derivation label set {"kek", "hmac"} is closed; adding a
// label retroactively changes the hierarchy and is a breaking change.
package masterkey

import (
	"encoding/json"
	"fmt"

	"github.com/allisson/privstore/codec"
	"github.com/allisson/privstore/crypto"
	apperrors "github.com/allisson/privstore/internal/errors"
)

// Subkey derivation labels. This set is closed.
var (
	labelKEK       = []byte("kek")
	labelIndexHMAC = []byte("hmac")
)

// MasterKey owns the master HMAC-SHA-256 secret and its two derived subkeys.
//
// The master secret only ever leaves the process password-wrapped (see
// WrapWithPassword). The KEK wraps per-document content keys via AES Key
// Wrap; the index key drives deterministic HMAC blinding of document ids and
// attribute pairs. A MasterKey is safe for concurrent use: all fields are
// written once at construction and only read afterwards, until Close.
type MasterKey struct {
	master    []byte
	kek       []byte
	indexHMAC []byte
}

// Generate creates a MasterKey with a fresh random 32-byte master secret.
func Generate() (*MasterKey, error) {
	secret, err := crypto.RandomBytes(crypto.KeySize)
	if err != nil {
		return nil, err
	}

	return newFromSecret(secret)
}

// newFromSecret builds a MasterKey around the given master secret and derives
// its subkeys. Ownership of the secret transfers to the key.
func newFromSecret(secret []byte) (*MasterKey, error) {
	if len(secret) != crypto.KeySize {
		codec.Zero(secret)
		return nil, crypto.ErrInvalidKeySize
	}

	return &MasterKey{
		master:    secret,
		kek:       crypto.HMACSHA256(secret, labelKEK),
		indexHMAC: crypto.HMACSHA256(secret, labelIndexHMAC),
	}, nil
}

// Encrypt seals data into a document JWE: a fresh 32-byte content key is
// wrapped under the KEK with AES Key Wrap, the payload is AES-GCM-encrypted
// under that content key with a fresh 12-byte IV and empty associated data,
// and the ciphertext and 16-byte tag are carried as separate base64url
// fields. The content key is zeroized before returning.
func (k *MasterKey) Encrypt(data []byte) (*JWE, error) {
	cek, err := crypto.RandomBytes(crypto.KeySize)
	if err != nil {
		return nil, err
	}
	defer codec.Zero(cek)

	encryptedKey, err := crypto.AESKeyWrap(k.kek, cek)
	if err != nil {
		return nil, err
	}

	iv, err := crypto.RandomBytes(crypto.GCMNonceSize)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, err := crypto.AESGCMEncrypt(cek, iv, data)
	if err != nil {
		return nil, err
	}

	return &JWE{
		Unprotected:  JWEHeader{Alg: KeyWrapAlgorithm, Enc: ContentAlgorithm},
		EncryptedKey: codec.EncodeBase64URL(encryptedKey),
		IV:           codec.EncodeBase64URL(iv),
		Ciphertext:   codec.EncodeBase64URL(ciphertext),
		Tag:          codec.EncodeBase64URL(tag),
	}, nil
}

// EncryptObject JSON-serializes v and seals it with Encrypt. Key ordering of
// the serialized form follows the caller's JSON representation; round-trip
// equality of ordering is not guaranteed.
func (k *MasterKey) EncryptObject(v any) (*JWE, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}
	defer codec.Zero(data)

	return k.Encrypt(data)
}

// Decrypt opens a document JWE. A structurally invalid envelope (wrong
// header, missing field, bad base64url, wrong iv or tag length) yields
// ErrMalformedJWE; any key-unwrap or AEAD authentication failure yields
// ErrDecryptionFailed with no further detail.
func (k *MasterKey) Decrypt(jwe *JWE) ([]byte, error) {
	if jwe == nil {
		return nil, fmt.Errorf("%w: missing envelope", ErrMalformedJWE)
	}
	if err := jwe.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}

	encryptedKey, err := codec.DecodeBase64URL(jwe.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}
	iv, err := codec.DecodeBase64URL(jwe.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}
	ciphertext, err := codec.DecodeBase64URL(jwe.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}
	tag, err := codec.DecodeBase64URL(jwe.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}
	if len(iv) != crypto.GCMNonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrMalformedJWE, crypto.GCMNonceSize)
	}
	if len(tag) != crypto.GCMTagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrMalformedJWE, crypto.GCMTagSize)
	}

	cek, err := crypto.AESKeyUnwrap(k.kek, encryptedKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedJWE, err)
		}
		return nil, ErrDecryptionFailed
	}
	defer codec.Zero(cek)

	return crypto.AESGCMDecrypt(cek, iv, ciphertext, tag)
}

// DecryptObject opens a document JWE and JSON-parses the plaintext into v.
// The intermediate plaintext buffer is zeroized before returning.
func (k *MasterKey) DecryptObject(jwe *JWE, v any) error {
	data, err := k.Decrypt(jwe)
	if err != nil {
		return err
	}
	defer codec.Zero(data)

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJWE, err)
	}

	return nil
}

// Blind computes the deterministic index token of data: HMAC-SHA-256 under
// the index key, base64url-encoded. Identical inputs always produce identical
// tokens, which is what lets the server match equality without plaintext.
func (k *MasterKey) Blind(data []byte) string {
	return codec.EncodeBase64URL(crypto.HMACSHA256(k.indexHMAC, data))
}

// BlindString blinds the UTF-8 bytes of s.
func (k *MasterKey) BlindString(s string) string {
	return k.Blind([]byte(s))
}

// WrapWithPassword encrypts the master secret under a password-derived key:
// PBKDF2-HMAC-SHA-512 with a fresh random 32-byte salt and 4096 iterations
// derives an AES Key Wrap key, which wraps the raw master secret. Password
// bytes and the derived key are zeroized on every exit path.
func (k *MasterKey) WrapWithPassword(password string) (*WrappedKey, error) {
	passwordBytes := []byte(password)
	defer codec.Zero(passwordBytes)

	salt, err := crypto.RandomBytes(SaltSize)
	if err != nil {
		return nil, err
	}

	wrapKey := crypto.PBKDF2SHA512(passwordBytes, salt, PBKDF2Iterations)
	defer codec.Zero(wrapKey)

	encryptedKey, err := crypto.AESKeyWrap(wrapKey, k.master)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		Header: WrappedKeyHeader{
			Alg: PasswordWrapAlgorithm,
			P2C: PBKDF2Iterations,
			P2S: codec.EncodeBase64URL(salt),
		},
		EncryptedKey: codec.EncodeBase64URL(encryptedKey),
	}, nil
}

// UnwrapWithPassword recovers a MasterKey from its password-wrapped form.
// A structurally invalid wrapped key yields ErrMalformedWrappedKey; a wrong
// password surfaces as ErrDecryptionFailed through the key-wrap integrity
// check. The recovered secret is re-imported and the subkeys re-derived.
func UnwrapWithPassword(password string, wk *WrappedKey) (*MasterKey, error) {
	if wk == nil {
		return nil, fmt.Errorf("%w: missing wrapped key", ErrMalformedWrappedKey)
	}
	if err := wk.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWrappedKey, err)
	}

	salt, err := codec.DecodeBase64URL(wk.Header.P2S)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWrappedKey, err)
	}
	encryptedKey, err := codec.DecodeBase64URL(wk.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWrappedKey, err)
	}

	passwordBytes := []byte(password)
	defer codec.Zero(passwordBytes)

	wrapKey := crypto.PBKDF2SHA512(passwordBytes, salt, wk.Header.P2C)
	defer codec.Zero(wrapKey)

	secret, err := crypto.AESKeyUnwrap(wrapKey, encryptedKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedWrappedKey, err)
		}
		return nil, ErrDecryptionFailed
	}

	return newFromSecret(secret)
}

// Close zeroizes all key material. The key must not be used afterwards.
func (k *MasterKey) Close() {
	codec.Zero(k.master)
	codec.Zero(k.kek)
	codec.Zero(k.indexHMAC)
}
