package crypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2SHA512 derives a 32-byte key from password bytes using
// PBKDF2-HMAC-SHA-512, matching the PBES2-HS512+A256KW key derivation of the
// password-wrapped master key. The caller owns zeroization of the password
// bytes and the derived key.
func PBKDF2SHA512(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha512.New)
}
