package crypto

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/allisson/privstore/codec"
	apperrors "github.com/allisson/privstore/internal/errors"
)

// AES Key Wrap per RFC 3394, the A256KW algorithm of the JWE envelopes this
// library produces. The input must be a multiple of 8 bytes and at least 16
// bytes; the wrapped output is 8 bytes longer than the input.
//
// The default initial value 0xA6A6A6A6A6A6A6A6 doubles as the integrity check
// on unwrap, so a wrong KEK or tampered blob fails authentication rather than
// yielding garbage key material.

// kwIV is the RFC 3394 default initial value.
var kwIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// AESKeyWrap wraps keyMaterial under kek using AES Key Wrap (RFC 3394).
func AESKeyWrap(kek, keyMaterial []byte) ([]byte, error) {
	if len(kek) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(keyMaterial) < 16 || len(keyMaterial)%8 != 0 {
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"key material must be a multiple of 8 bytes and at least 16 bytes",
		)
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	n := len(keyMaterial) / 8

	// A = IV, R[i] = P[i]
	a := kwIV
	r := make([]byte, len(keyMaterial))
	copy(r, keyMaterial)

	var buf [16]byte
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			// B = AES(K, A | R[i])
			copy(buf[:8], a[:])
			copy(buf[8:], r[i*8:(i+1)*8])
			block.Encrypt(buf[:], buf[:])

			// A = MSB(64, B) ^ t where t = (n*j)+i+1
			t := uint64(n*j + i + 1)
			binary.BigEndian.PutUint64(a[:], binary.BigEndian.Uint64(buf[:8])^t)

			// R[i] = LSB(64, B)
			copy(r[i*8:(i+1)*8], buf[8:])
		}
	}

	wrapped := make([]byte, 0, 8+len(r))
	wrapped = append(wrapped, a[:]...)
	wrapped = append(wrapped, r...)
	return wrapped, nil
}

// AESKeyUnwrap unwraps an RFC 3394 blob under kek and verifies its integrity
// check value. Any mismatch yields ErrDecryptionFailed.
func AESKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(kek) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, apperrors.Wrap(apperrors.ErrMalformed, "invalid wrapped key length")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	n := len(wrapped)/8 - 1

	var a [8]byte
	copy(a[:], wrapped[:8])
	r := make([]byte, len(wrapped)-8)
	copy(r, wrapped[8:])

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			// B = AES-1(K, (A ^ t) | R[i]) where t = (n*j)+i+1
			t := uint64(n*j + i + 1)
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(a[:])^t)
			copy(buf[8:], r[i*8:(i+1)*8])
			block.Decrypt(buf[:], buf[:])

			copy(a[:], buf[:8])
			copy(r[i*8:(i+1)*8], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], kwIV[:]) != 1 {
		codec.Zero(r)
		return nil, ErrDecryptionFailed
	}

	return r, nil
}
