package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256 computes the HMAC-SHA-256 of data under key, returning 32 bytes.
// This single primitive backs both subkey derivation (fixed labels) and
// deterministic index blinding; the two use independent keys.
func HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
