package crypto

import (
	"crypto/rand"

	apperrors "github.com/allisson/privstore/internal/errors"
)

// RandomBytes returns n bytes from the platform CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, apperrors.Wrap(err, "failed to read random bytes")
	}
	return b, nil
}
