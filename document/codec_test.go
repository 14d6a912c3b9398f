package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/privstore/internal/errors"
	"github.com/allisson/privstore/masterkey"
)

func newTestKey(t *testing.T) *masterkey.MasterKey {
	t.Helper()
	key, err := masterkey.Generate()
	require.NoError(t, err)
	t.Cleanup(key.Close)
	return key
}

func TestDocument_ID(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		want    string
		wantErr bool
	}{
		{name: "valid id", doc: Document{"id": "doc-1"}, want: "doc-1"},
		{name: "missing id", doc: Document{"a": 1}, wantErr: true},
		{name: "non-string id", doc: Document{"id": 42}, wantErr: true},
		{name: "empty id", doc: Document{"id": ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.doc.ID()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDocumentID)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	key := newTestKey(t)
	doc := Document{"id": "doc-1", "a": float64(1), "b": "text", "c": []any{float64(1), float64(2)}}

	enc, err := Encode(context.Background(), doc, key, nil)
	require.NoError(t, err)

	assert.Equal(t, key.BlindString("doc-1"), enc.ID)
	assert.Empty(t, enc.Attributes)
	require.NotNil(t, enc.JWE)

	decoded, err := Decode(context.Background(), enc, key)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestEncode_IndexSetEffect(t *testing.T) {
	key := newTestKey(t)
	doc := Document{"id": "doc-1", "indexed": "v1", "other": "v2"}

	enc, err := Encode(context.Background(), doc, key, []string{"indexed", "absent"})
	require.NoError(t, err)

	// Exactly one blinded attribute: the indexed key present on the document.
	// Keys outside the index set and index keys absent from the document emit
	// nothing.
	require.Len(t, enc.Attributes, 1)
	assert.Equal(t, key.BlindString("indexed"), enc.Attributes[0].Name)
	assert.Equal(t, key.Blind([]byte(`{"indexed":"v1"}`)), enc.Attributes[0].Value)
}

func TestEncode_DeterministicAttributes(t *testing.T) {
	key := newTestKey(t)

	first, err := Encode(
		context.Background(),
		Document{"id": "h1", "k": "v"},
		key,
		[]string{"k"},
	)
	require.NoError(t, err)
	second, err := Encode(
		context.Background(),
		Document{"id": "h2", "k": "v"},
		key,
		[]string{"k"},
	)
	require.NoError(t, err)

	// Identical (key, value) pairs across documents blind identically; ids
	// differ.
	assert.Equal(t, first.Attributes, second.Attributes)
	assert.NotEqual(t, first.ID, second.ID)

	// Same value under a different attribute key produces a different token.
	other, err := Encode(
		context.Background(),
		Document{"id": "h3", "k2": "v"},
		key,
		[]string{"k2"},
	)
	require.NoError(t, err)
	assert.NotEqual(t, first.Attributes[0].Value, other.Attributes[0].Value)
}

func TestEncode_InvalidDocument(t *testing.T) {
	key := newTestKey(t)

	tests := []struct {
		name string
		doc  Document
	}{
		{name: "missing id", doc: Document{"a": 1}},
		{name: "numeric id", doc: Document{"id": 7}},
		{name: "empty id", doc: Document{"id": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(context.Background(), tt.doc, key, nil)
			assert.ErrorIs(t, err, ErrInvalidDocumentID)
		})
	}
}

func TestEncode_CancelledContext(t *testing.T) {
	key := newTestKey(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Encode(ctx, Document{"id": "doc-1"}, key, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecode_MalformedRecord(t *testing.T) {
	key := newTestKey(t)

	valid, err := Encode(context.Background(), Document{"id": "doc-1"}, key, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		enc  *EncryptedDocument
	}{
		{name: "nil record", enc: nil},
		{name: "missing id", enc: &EncryptedDocument{JWE: valid.JWE}},
		{name: "missing jwe", enc: &EncryptedDocument{ID: valid.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), tt.enc, key)
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestDecode_BodyWithoutStringID(t *testing.T) {
	key := newTestKey(t)

	// Seal a body that decrypts fine but carries no string id.
	jwe, err := key.EncryptObject(map[string]any{"id": 42, "a": "b"})
	require.NoError(t, err)

	enc := &EncryptedDocument{ID: key.BlindString("whatever"), JWE: jwe}
	_, err = Decode(context.Background(), enc, key)
	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.ErrorIs(t, err, apperrors.ErrMalformed)
}

func TestDecode_WrongKey(t *testing.T) {
	key := newTestKey(t)
	otherKey := newTestKey(t)

	enc, err := Encode(context.Background(), Document{"id": "doc-1"}, key, nil)
	require.NoError(t, err)

	_, err = Decode(context.Background(), enc, otherKey)
	assert.ErrorIs(t, err, masterkey.ErrDecryptionFailed)
}
