package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/allisson/privstore/document"
	apperrors "github.com/allisson/privstore/internal/errors"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

var _ DocumentTransport = (*RetryTransport)(nil)

// RetryTransport decorates a DocumentTransport with exponential-backoff
// retries for transient failures. Recognized outcomes (not found, conflict,
// invalid input, malformed data, crypto failure) and context cancellation are
// never retried; they carry semantics the caller must see.
type RetryTransport struct {
	next            DocumentTransport
	maxElapsedTime  time.Duration
	initialInterval time.Duration
}

// RetryOption configures a RetryTransport.
type RetryOption func(*RetryTransport)

// WithRetryMaxElapsedTime bounds the total time spent retrying one call.
func WithRetryMaxElapsedTime(d time.Duration) RetryOption {
	return func(t *RetryTransport) {
		t.maxElapsedTime = d
	}
}

// WithRetryInitialInterval sets the first backoff interval.
func WithRetryInitialInterval(d time.Duration) RetryOption {
	return func(t *RetryTransport) {
		t.initialInterval = d
	}
}

// NewRetryTransport wraps next with retry behavior.
func NewRetryTransport(next DocumentTransport, opts ...RetryOption) *RetryTransport {
	t := &RetryTransport{
		next:            next,
		maxElapsedTime:  15 * time.Second,
		initialInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// permanent reports whether an error must not be retried.
func permanent(err error) bool {
	return apperrors.Is(err, apperrors.ErrNotFound) ||
		apperrors.Is(err, apperrors.ErrConflict) ||
		apperrors.Is(err, apperrors.ErrInvalidInput) ||
		apperrors.Is(err, apperrors.ErrMalformed) ||
		apperrors.Is(err, apperrors.ErrCryptoFailure) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (t *RetryTransport) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialInterval
	b.MaxElapsedTime = t.maxElapsedTime
	return backoff.WithContext(b, ctx)
}

// retry runs op under the backoff policy, marking permanent errors so the
// policy stops immediately.
func (t *RetryTransport) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, t.newBackOff(ctx))
}

// retryWithData is the result-carrying variant of retry.
func retryWithData[T any](
	ctx context.Context,
	t *RetryTransport,
	op func() (T, error),
) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		value, err := op()
		if err != nil && permanent(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}, t.newBackOff(ctx))
}

// PutMasterKeyIfAbsent implements DocumentTransport.
func (t *RetryTransport) PutMasterKeyIfAbsent(ctx context.Context, key *masterkey.WrappedKey) error {
	return t.retry(ctx, func() error { return t.next.PutMasterKeyIfAbsent(ctx, key) })
}

// PostMasterKey implements DocumentTransport.
func (t *RetryTransport) PostMasterKey(ctx context.Context, key *masterkey.WrappedKey) error {
	return t.retry(ctx, func() error { return t.next.PostMasterKey(ctx, key) })
}

// GetMasterKey implements DocumentTransport.
func (t *RetryTransport) GetMasterKey(ctx context.Context) (*masterkey.WrappedKey, error) {
	return retryWithData(ctx, t, func() (*masterkey.WrappedKey, error) {
		return t.next.GetMasterKey(ctx)
	})
}

// PostDocument implements DocumentTransport.
func (t *RetryTransport) PostDocument(ctx context.Context, doc *document.EncryptedDocument) error {
	return t.retry(ctx, func() error { return t.next.PostDocument(ctx, doc) })
}

// PutDocument implements DocumentTransport.
func (t *RetryTransport) PutDocument(
	ctx context.Context,
	blindedID string,
	doc *document.EncryptedDocument,
) error {
	return t.retry(ctx, func() error { return t.next.PutDocument(ctx, blindedID, doc) })
}

// GetDocument implements DocumentTransport.
func (t *RetryTransport) GetDocument(
	ctx context.Context,
	blindedID string,
) (*document.EncryptedDocument, error) {
	return retryWithData(ctx, t, func() (*document.EncryptedDocument, error) {
		return t.next.GetDocument(ctx, blindedID)
	})
}

// DeleteDocument implements DocumentTransport.
func (t *RetryTransport) DeleteDocument(ctx context.Context, blindedID string) (bool, error) {
	return retryWithData(ctx, t, func() (bool, error) {
		return t.next.DeleteDocument(ctx, blindedID)
	})
}

// Query implements DocumentTransport.
func (t *RetryTransport) Query(
	ctx context.Context,
	q *query.BlindedQuery,
) ([]*document.EncryptedDocument, error) {
	return retryWithData(ctx, t, func() ([]*document.EncryptedDocument, error) {
		return t.next.Query(ctx, q)
	})
}
