// Package document converts between cleartext documents and the encrypted,
// server-visible records: the blinded id, the blinded attribute pairs for
// indexed keys, and the JWE body carrying the whole document.
package document

import (
	apperrors "github.com/allisson/privstore/internal/errors"
	"github.com/allisson/privstore/masterkey"
)

// Document is a caller-supplied record. It must carry a non-empty string
// under the "id" key; every entry, including the id, is serialized into the
// encrypted body.
type Document map[string]any

// ID returns the document's plaintext id.
func (d Document) ID() (string, error) {
	raw, ok := d["id"]
	if !ok {
		return "", apperrors.Wrap(ErrInvalidDocumentID, "missing id")
	}

	id, ok := raw.(string)
	if !ok {
		return "", apperrors.Wrap(ErrInvalidDocumentID, "id must be a string")
	}
	if id == "" {
		return "", apperrors.Wrap(ErrInvalidDocumentID, "id must not be empty")
	}

	return id, nil
}

// BlindedAttribute is a deterministic (name, value) token pair for one
// indexed attribute. Identical cleartext pairs blind identically across
// documents, which is what allows server-side equality matching.
type BlindedAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EncryptedDocument is the server-visible record: the blinded id, the blinded
// attribute pairs for indexed keys present on the document, and the JWE body.
// Attribute ordering carries no meaning.
type EncryptedDocument struct {
	ID         string             `json:"id"`
	Attributes []BlindedAttribute `json:"attributes"`
	JWE        *masterkey.JWE     `json:"jwe"`
}

// BlindID computes the deterministic server-side id token for a plaintext id.
func BlindID(key *masterkey.MasterKey, id string) string {
	return key.BlindString(id)
}
