package storage

import (
	"context"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

// Store is the high-level surface of the encrypted document store. Facade is
// the canonical implementation; WithMetrics decorates any Store with
// operation metrics.
type Store interface {
	// EnsureIndex marks an attribute as indexable. Affects future writes only.
	EnsureIndex(attribute string)

	// CreateMasterKey generates a fresh master key, wraps it under password,
	// and stores it only if the account has none; the new key is cached on
	// success.
	CreateMasterKey(ctx context.Context, password string) error

	// ChangeMasterKeyPassword re-wraps the current master key under a new
	// password, unlocking it first if necessary.
	ChangeMasterKeyPassword(ctx context.Context, newPassword string) error

	// GetMasterKey fetches the account's wrapped master key and unwraps it
	// with password. The caller owns the returned key; typical use is inside a
	// MasterKeyListener.
	GetMasterKey(ctx context.Context, password string) (*masterkey.MasterKey, error)

	// Insert creates a document; an existing id fails with
	// ErrDuplicateDocument.
	Insert(ctx context.Context, doc document.Document) error

	// Update creates or replaces a document and returns the stored encrypted
	// record.
	Update(ctx context.Context, doc document.Document) (*document.EncryptedDocument, error)

	// Delete removes a document by plaintext id, reporting whether anything
	// was deleted.
	Delete(ctx context.Context, id string) (bool, error)

	// Get fetches and decrypts a document by plaintext id.
	Get(ctx context.Context, id string) (document.Document, error)

	// Find runs a blinded query and decrypts the result set.
	Find(ctx context.Context, filter *query.Filter) ([]document.Document, error)
}
