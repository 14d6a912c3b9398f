package storage

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

var _ DocumentTransport = (*RateLimitTransport)(nil)

// RateLimitTransport decorates a DocumentTransport with a client-side token
// bucket. Every call waits for a token first; a context cancelled while
// waiting surfaces as the context error.
type RateLimitTransport struct {
	next    DocumentTransport
	limiter *rate.Limiter
}

// NewRateLimitTransport wraps next with a token bucket of requestsPerSec and
// burst.
func NewRateLimitTransport(next DocumentTransport, requestsPerSec float64, burst int) *RateLimitTransport {
	return &RateLimitTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), burst),
	}
}

// PutMasterKeyIfAbsent implements DocumentTransport.
func (t *RateLimitTransport) PutMasterKeyIfAbsent(ctx context.Context, key *masterkey.WrappedKey) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.PutMasterKeyIfAbsent(ctx, key)
}

// PostMasterKey implements DocumentTransport.
func (t *RateLimitTransport) PostMasterKey(ctx context.Context, key *masterkey.WrappedKey) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.PostMasterKey(ctx, key)
}

// GetMasterKey implements DocumentTransport.
func (t *RateLimitTransport) GetMasterKey(ctx context.Context) (*masterkey.WrappedKey, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.GetMasterKey(ctx)
}

// PostDocument implements DocumentTransport.
func (t *RateLimitTransport) PostDocument(ctx context.Context, doc *document.EncryptedDocument) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.PostDocument(ctx, doc)
}

// PutDocument implements DocumentTransport.
func (t *RateLimitTransport) PutDocument(
	ctx context.Context,
	blindedID string,
	doc *document.EncryptedDocument,
) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.PutDocument(ctx, blindedID, doc)
}

// GetDocument implements DocumentTransport.
func (t *RateLimitTransport) GetDocument(
	ctx context.Context,
	blindedID string,
) (*document.EncryptedDocument, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.GetDocument(ctx, blindedID)
}

// DeleteDocument implements DocumentTransport.
func (t *RateLimitTransport) DeleteDocument(ctx context.Context, blindedID string) (bool, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return t.next.DeleteDocument(ctx, blindedID)
}

// Query implements DocumentTransport.
func (t *RateLimitTransport) Query(
	ctx context.Context,
	q *query.BlindedQuery,
) ([]*document.EncryptedDocument, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Query(ctx, q)
}
