// Package storage orchestrates the encrypted document store: it mediates
// master-key acquisition through the key cache and the listener callback,
// applies the local index-set policy on every write, and drives the
// DocumentTransport capability for all server interaction.
package storage

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/privstore/document"
	appvalidation "github.com/allisson/privstore/internal/validation"
	"github.com/allisson/privstore/keycache"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

var _ Store = (*Facade)(nil)

// Facade is the canonical Store implementation.
//
// Master key availability moves Absent → Cached → Absent: a successful
// CreateMasterKey or a listener-supplied unlock caches the key, every
// operation that consults the cache slides its TTL, and expiry collapses
// straight back to Absent. Expiry is not an error; the next operation
// transparently re-requests the key.
type Facade struct {
	accountID    string
	transport    DocumentTransport
	logger       *slog.Logger
	cache        *keycache.Cache
	cacheTimeout time.Duration
	indexSet     *IndexSet

	mu       sync.Mutex
	listener MasterKeyListener
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the facade logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// WithKeyCacheTimeout sets the default sliding lifetime of a cached master
// key. A listener response can override it per unlock.
func WithKeyCacheTimeout(timeout time.Duration) Option {
	return func(f *Facade) {
		f.cacheTimeout = timeout
	}
}

// New creates a Facade for one account on the given transport.
func New(accountID string, transport DocumentTransport, opts ...Option) (*Facade, error) {
	if err := validation.Validate(accountID, validation.Required, appvalidation.NotBlank); err != nil {
		return nil, ErrInvalidAccountID
	}
	if transport == nil {
		return nil, appvalidation.WrapValidationError(validation.NewError(
			"validation_transport_required", "transport must not be nil",
		))
	}

	f := &Facade{
		accountID:    accountID,
		transport:    transport,
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		cache:        keycache.New(),
		cacheTimeout: keycache.DefaultTimeout,
		indexSet:     NewIndexSet(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// AccountID returns the account this facade addresses.
func (f *Facade) AccountID() string {
	return f.accountID
}

// OnMasterKeyRequest registers the listener that answers master-key
// requests. At most one listener may be registered at a time.
func (f *Facade) OnMasterKeyRequest(listener MasterKeyListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listener != nil {
		return ErrListenerAlreadyRegistered
	}
	f.listener = listener
	return nil
}

// RemoveMasterKeyListener clears the registered listener.
func (f *Facade) RemoveMasterKeyListener() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listener = nil
}

// ClearKeyCache drops the cached master key immediately.
func (f *Facade) ClearKeyCache() {
	f.cache.Clear()
}

// EnsureIndex marks an attribute as indexable. Affects future writes only;
// records already on the server are not retrofitted.
func (f *Facade) EnsureIndex(attribute string) {
	f.indexSet.Add(attribute)
}

// CreateMasterKey generates a fresh master key, wraps it under password, and
// stores it with an only-if-absent precondition. An account that already has
// a key fails with ErrDuplicateMasterKey; on success the new key is cached.
func (f *Facade) CreateMasterKey(ctx context.Context, password string) error {
	key, err := masterkey.Generate()
	if err != nil {
		return err
	}

	wrapped, err := key.WrapWithPassword(password)
	if err != nil {
		key.Close()
		return err
	}

	if err := f.transport.PutMasterKeyIfAbsent(ctx, wrapped); err != nil {
		key.Close()
		return err
	}

	f.cache.Update(key, f.cacheTimeout)
	f.logger.DebugContext(ctx, "master key created",
		slog.String("account_id", f.accountID),
	)
	return nil
}

// ChangeMasterKeyPassword re-wraps the current master key under a new
// password and replaces the stored wrapped key. The key is unlocked through
// the cache or the listener if it is not at hand.
func (f *Facade) ChangeMasterKeyPassword(ctx context.Context, newPassword string) error {
	key, err := f.acquireMasterKey(ctx)
	if err != nil {
		return err
	}

	wrapped, err := key.WrapWithPassword(newPassword)
	if err != nil {
		return err
	}

	return f.transport.PostMasterKey(ctx, wrapped)
}

// GetMasterKey fetches the account's wrapped master key and unwraps it with
// password. The caller owns the returned key; typical use is inside a
// MasterKeyListener that prompts the user and hands the key back to the
// facade.
func (f *Facade) GetMasterKey(ctx context.Context, password string) (*masterkey.MasterKey, error) {
	wrapped, err := f.transport.GetMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	return masterkey.UnwrapWithPassword(password, wrapped)
}

// Insert creates a document. An existing id fails with ErrDuplicateDocument.
func (f *Facade) Insert(ctx context.Context, doc document.Document) error {
	enc, err := f.encode(ctx, doc)
	if err != nil {
		return err
	}

	return f.transport.PostDocument(ctx, enc)
}

// Update creates or replaces a document and returns the stored encrypted
// record.
func (f *Facade) Update(
	ctx context.Context,
	doc document.Document,
) (*document.EncryptedDocument, error) {
	enc, err := f.encode(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := f.transport.PutDocument(ctx, enc.ID, enc); err != nil {
		return nil, err
	}

	return enc, nil
}

// Delete removes a document by plaintext id. A missing document reports
// (false, nil) rather than an error.
func (f *Facade) Delete(ctx context.Context, id string) (bool, error) {
	if err := validation.Validate(id, validation.Required, appvalidation.NotBlank); err != nil {
		return false, appvalidation.WrapValidationError(err)
	}

	key, err := f.acquireMasterKey(ctx)
	if err != nil {
		return false, err
	}

	return f.transport.DeleteDocument(ctx, document.BlindID(key, id))
}

// Get fetches and decrypts a document by plaintext id. A missing document is
// ErrDocumentNotFound.
func (f *Facade) Get(ctx context.Context, id string) (document.Document, error) {
	if err := validation.Validate(id, validation.Required, appvalidation.NotBlank); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	key, err := f.acquireMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	enc, err := f.transport.GetDocument(ctx, document.BlindID(key, id))
	if err != nil {
		return nil, err
	}

	return document.Decode(ctx, enc, key)
}

// Find runs a blinded query and decrypts the result set concurrently. Any
// decode failure fails the whole call; callers never observe partial
// results.
func (f *Facade) Find(ctx context.Context, filter *query.Filter) ([]document.Document, error) {
	key, err := f.acquireMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	planned, err := filter.Plan(key)
	if err != nil {
		return nil, err
	}

	results, err := f.transport.Query(ctx, planned)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(results))
	g, gctx := errgroup.WithContext(ctx)
	for i, enc := range results {
		g.Go(func() error {
			doc, err := document.Decode(gctx, enc, key)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// encode acquires the master key and converts the document into its
// encrypted form under the current index-set policy.
func (f *Facade) encode(
	ctx context.Context,
	doc document.Document,
) (*document.EncryptedDocument, error) {
	key, err := f.acquireMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	return document.Encode(ctx, doc, key, f.indexSet.Values())
}

// acquireMasterKey returns the cached master key, sliding its TTL, or asks
// the registered listener for one. No listener and no cached key is
// ErrMasterKeyNotFound.
func (f *Facade) acquireMasterKey(ctx context.Context) (*masterkey.MasterKey, error) {
	if key, ok := f.cache.Get(); ok {
		return key, nil
	}

	f.mu.Lock()
	listener := f.listener
	f.mu.Unlock()

	if listener == nil {
		return nil, ErrMasterKeyNotFound
	}

	req := &MasterKeyRequest{
		Name:      EventMasterKeyRequest,
		AccountID: f.accountID,
		RequestID: uuid.Must(uuid.NewV7()),
	}
	f.logger.DebugContext(ctx, "master key cache miss, dispatching request",
		slog.String("account_id", f.accountID),
		slog.String("request_id", req.RequestID.String()),
	)

	resp, err := listener.HandleMasterKeyRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Key == nil {
		return nil, ErrInvalidKeyResponse
	}

	timeout := resp.Timeout
	if timeout <= 0 {
		timeout = f.cacheTimeout
	}
	f.cache.Update(resp.Key, timeout)

	return resp.Key, nil
}
