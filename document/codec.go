package document

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/privstore/internal/errors"
	"github.com/allisson/privstore/masterkey"
)

// Encode converts a cleartext document into its encrypted, server-visible
// form. The blinded id, the blinded attributes for every indexed key present
// on the document, and the JWE body are computed concurrently; they share
// only read access to the master key.
func Encode(
	ctx context.Context,
	doc Document,
	key *masterkey.MasterKey,
	indexKeys []string,
) (*EncryptedDocument, error) {
	id, err := doc.ID()
	if err != nil {
		return nil, err
	}

	// One slot per index key; slots for keys absent from the document stay nil
	// and are compacted afterwards.
	slots := make([]*BlindedAttribute, len(indexKeys))

	var blindedID string
	var jwe *masterkey.JWE

	// Blinding and encryption are CPU-bound; cancellation is handled by the
	// explicit ctx check after the group drains.
	var g errgroup.Group

	g.Go(func() error {
		blindedID = key.BlindString(id)
		return nil
	})

	g.Go(func() error {
		var err error
		jwe, err = key.EncryptObject(doc)
		return err
	})

	for i, attrKey := range indexKeys {
		value, ok := doc[attrKey]
		if !ok {
			continue
		}

		g.Go(func() error {
			attr, err := blindAttribute(key, attrKey, value)
			if err != nil {
				return err
			}
			slots[i] = attr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attributes := make([]BlindedAttribute, 0, len(slots))
	for _, attr := range slots {
		if attr != nil {
			attributes = append(attributes, *attr)
		}
	}

	return &EncryptedDocument{
		ID:         blindedID,
		Attributes: attributes,
		JWE:        jwe,
	}, nil
}

// blindAttribute produces the deterministic token pair for one attribute.
// The value token blinds the single-entry JSON object {attrKey: value} so
// that equal pairs match and equal values under different keys do not.
func blindAttribute(key *masterkey.MasterKey, attrKey string, value any) (*BlindedAttribute, error) {
	pair, err := json.Marshal(map[string]any{attrKey: value})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	return &BlindedAttribute{
		Name:  key.BlindString(attrKey),
		Value: key.Blind(pair),
	}, nil
}

// Decode recovers the cleartext document from its encrypted form. The
// decrypted body must be a JSON object with a non-empty string id; the outer
// blinded id is not returned to callers.
func Decode(
	ctx context.Context,
	enc *EncryptedDocument,
	key *masterkey.MasterKey,
) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: missing encrypted document", ErrMalformedDocument)
	}
	if enc.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedDocument)
	}
	if enc.JWE == nil {
		return nil, fmt.Errorf("%w: missing jwe", ErrMalformedDocument)
	}

	var doc Document
	if err := key.DecryptObject(enc.JWE, &doc); err != nil {
		return nil, err
	}

	if _, err := doc.ID(); err != nil {
		return nil, fmt.Errorf("%w: decrypted body has no string id", ErrMalformedDocument)
	}

	return doc, nil
}
