package storage

import (
	"context"
	"sync"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

var _ DocumentTransport = (*MemoryTransport)(nil)

// MemoryTransport is an in-process DocumentTransport holding everything in
// maps. It honors the full transport contract, including the server-side
// matching semantics for blinded queries, which makes it both a usable test
// double for applications and the backend of this package's own end-to-end
// tests. Safe for concurrent use.
type MemoryTransport struct {
	mu         sync.Mutex
	wrappedKey *masterkey.WrappedKey
	documents  map[string]*document.EncryptedDocument
	order      []string
}

// NewMemoryTransport creates an empty MemoryTransport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{documents: make(map[string]*document.EncryptedDocument)}
}

// PutMasterKeyIfAbsent stores the wrapped master key only if none exists.
func (m *MemoryTransport) PutMasterKeyIfAbsent(ctx context.Context, key *masterkey.WrappedKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.wrappedKey != nil {
		return ErrDuplicateMasterKey
	}
	m.wrappedKey = cloneWrappedKey(key)
	return nil
}

// PostMasterKey replaces the stored wrapped master key.
func (m *MemoryTransport) PostMasterKey(ctx context.Context, key *masterkey.WrappedKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.wrappedKey = cloneWrappedKey(key)
	return nil
}

// GetMasterKey returns the stored wrapped master key, or ErrMasterKeyNotFound.
func (m *MemoryTransport) GetMasterKey(ctx context.Context) (*masterkey.WrappedKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.wrappedKey == nil {
		return nil, ErrMasterKeyNotFound
	}
	return cloneWrappedKey(m.wrappedKey), nil
}

// PostDocument creates a document; an existing blinded id is a conflict.
func (m *MemoryTransport) PostDocument(ctx context.Context, doc *document.EncryptedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[doc.ID]; ok {
		return ErrDuplicateDocument
	}
	m.documents[doc.ID] = cloneEncryptedDocument(doc)
	m.order = append(m.order, doc.ID)
	return nil
}

// PutDocument creates or replaces the document stored under blindedID.
func (m *MemoryTransport) PutDocument(
	ctx context.Context,
	blindedID string,
	doc *document.EncryptedDocument,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[blindedID]; !ok {
		m.order = append(m.order, blindedID)
	}
	m.documents[blindedID] = cloneEncryptedDocument(doc)
	return nil
}

// GetDocument returns the document stored under blindedID, or
// ErrDocumentNotFound.
func (m *MemoryTransport) GetDocument(
	ctx context.Context,
	blindedID string,
) (*document.EncryptedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[blindedID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return cloneEncryptedDocument(doc), nil
}

// DeleteDocument removes the document stored under blindedID, reporting
// whether anything was deleted.
func (m *MemoryTransport) DeleteDocument(ctx context.Context, blindedID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[blindedID]; !ok {
		return false, nil
	}
	delete(m.documents, blindedID)
	for i, id := range m.order {
		if id == blindedID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Query returns the documents matching the blinded payload: within one
// equals clause every (name, value) pair must be present (AND), clauses are
// OR-ed, and has names must all be present (AND).
func (m *MemoryTransport) Query(
	ctx context.Context,
	q *query.BlindedQuery,
) ([]*document.EncryptedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []*document.EncryptedDocument
	for _, id := range m.order {
		doc := m.documents[id]
		if matchesQuery(doc, q) {
			matches = append(matches, cloneEncryptedDocument(doc))
		}
	}
	return matches, nil
}

func matchesQuery(doc *document.EncryptedDocument, q *query.BlindedQuery) bool {
	if len(q.Equals) > 0 {
		for _, clause := range q.Equals {
			if matchesEqualsClause(doc, clause) {
				return true
			}
		}
		return false
	}

	for _, name := range q.Has {
		if !hasAttributeName(doc, name) {
			return false
		}
	}
	return len(q.Has) > 0
}

func matchesEqualsClause(doc *document.EncryptedDocument, clause map[string]string) bool {
	for name, value := range clause {
		if !hasAttributePair(doc, name, value) {
			return false
		}
	}
	return true
}

func hasAttributePair(doc *document.EncryptedDocument, name, value string) bool {
	for _, attr := range doc.Attributes {
		if attr.Name == name && attr.Value == value {
			return true
		}
	}
	return false
}

func hasAttributeName(doc *document.EncryptedDocument, name string) bool {
	for _, attr := range doc.Attributes {
		if attr.Name == name {
			return true
		}
	}
	return false
}

func cloneWrappedKey(key *masterkey.WrappedKey) *masterkey.WrappedKey {
	if key == nil {
		return nil
	}
	clone := *key
	return &clone
}

func cloneEncryptedDocument(doc *document.EncryptedDocument) *document.EncryptedDocument {
	if doc == nil {
		return nil
	}
	clone := *doc
	clone.Attributes = append([]document.BlindedAttribute(nil), doc.Attributes...)
	if doc.JWE != nil {
		jwe := *doc.JWE
		clone.JWE = &jwe
	}
	return &clone
}
