package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

// DefaultBaseURL is the path prefix under which transport implementations
// compose endpoints when no other base is configured.
const DefaultBaseURL = "/private-storage"

// DocumentTransport is the capability the facade consumes to talk to the
// storage server. Implementations translate these calls into whatever wire
// protocol the server speaks; the in-memory implementation in this package
// doubles as a test double.
//
// Error contract: absent resources map to ErrMasterKeyNotFound /
// ErrDocumentNotFound, create conflicts map to ErrDuplicateMasterKey /
// ErrDuplicateDocument, and anything else is wrapped as a transport failure.
type DocumentTransport interface {
	// PutMasterKeyIfAbsent stores the wrapped master key only if the account
	// has none; otherwise it fails with ErrDuplicateMasterKey.
	PutMasterKeyIfAbsent(ctx context.Context, key *masterkey.WrappedKey) error

	// PostMasterKey replaces the account's wrapped master key.
	PostMasterKey(ctx context.Context, key *masterkey.WrappedKey) error

	// GetMasterKey fetches the account's wrapped master key, or
	// ErrMasterKeyNotFound.
	GetMasterKey(ctx context.Context) (*masterkey.WrappedKey, error)

	// PostDocument creates a document; an existing blinded id fails with
	// ErrDuplicateDocument.
	PostDocument(ctx context.Context, doc *document.EncryptedDocument) error

	// PutDocument creates or replaces the document stored under blindedID.
	PutDocument(ctx context.Context, blindedID string, doc *document.EncryptedDocument) error

	// GetDocument fetches the document stored under blindedID, or
	// ErrDocumentNotFound.
	GetDocument(ctx context.Context, blindedID string) (*document.EncryptedDocument, error)

	// DeleteDocument removes the document stored under blindedID, reporting
	// whether anything was deleted. A missing document is (false, nil), not an
	// error.
	DeleteDocument(ctx context.Context, blindedID string) (bool, error)

	// Query returns the documents matching a blinded query payload.
	Query(ctx context.Context, q *query.BlindedQuery) ([]*document.EncryptedDocument, error)
}

// EndpointRoot composes the URL root under which an HTTP transport addresses
// one account: "{baseURL}/{urlescape(accountID)}". An empty baseURL selects
// DefaultBaseURL.
func EndpointRoot(baseURL, accountID string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(accountID)
}
