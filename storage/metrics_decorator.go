package storage

import (
	"context"
	"time"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/metrics"
	"github.com/allisson/privstore/query"
)

// storeWithMetrics decorates a Store with metrics instrumentation.
type storeWithMetrics struct {
	next    Store
	metrics metrics.OperationMetrics
}

// WithMetrics wraps a Store with operation metrics recording.
func WithMetrics(store Store, m metrics.OperationMetrics) Store {
	return &storeWithMetrics{
		next:    store,
		metrics: m,
	}
}

// record reports one operation outcome with its duration.
func (s *storeWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, operation, status)
	s.metrics.RecordDuration(ctx, operation, time.Since(start), status)
}

// EnsureIndex delegates to the wrapped store; index mutations are not timed.
func (s *storeWithMetrics) EnsureIndex(attribute string) {
	s.next.EnsureIndex(attribute)
}

// CreateMasterKey records metrics for master key creation.
func (s *storeWithMetrics) CreateMasterKey(ctx context.Context, password string) error {
	start := time.Now()
	err := s.next.CreateMasterKey(ctx, password)
	s.record(ctx, "create_master_key", start, err)
	return err
}

// ChangeMasterKeyPassword records metrics for password changes.
func (s *storeWithMetrics) ChangeMasterKeyPassword(ctx context.Context, newPassword string) error {
	start := time.Now()
	err := s.next.ChangeMasterKeyPassword(ctx, newPassword)
	s.record(ctx, "change_master_key_password", start, err)
	return err
}

// GetMasterKey records metrics for master key retrieval.
func (s *storeWithMetrics) GetMasterKey(
	ctx context.Context,
	password string,
) (*masterkey.MasterKey, error) {
	start := time.Now()
	key, err := s.next.GetMasterKey(ctx, password)
	s.record(ctx, "get_master_key", start, err)
	return key, err
}

// Insert records metrics for document creation.
func (s *storeWithMetrics) Insert(ctx context.Context, doc document.Document) error {
	start := time.Now()
	err := s.next.Insert(ctx, doc)
	s.record(ctx, "insert", start, err)
	return err
}

// Update records metrics for document replacement.
func (s *storeWithMetrics) Update(
	ctx context.Context,
	doc document.Document,
) (*document.EncryptedDocument, error) {
	start := time.Now()
	enc, err := s.next.Update(ctx, doc)
	s.record(ctx, "update", start, err)
	return enc, err
}

// Delete records metrics for document deletion.
func (s *storeWithMetrics) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	deleted, err := s.next.Delete(ctx, id)
	s.record(ctx, "delete", start, err)
	return deleted, err
}

// Get records metrics for document retrieval.
func (s *storeWithMetrics) Get(ctx context.Context, id string) (document.Document, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, id)
	s.record(ctx, "get", start, err)
	return doc, err
}

// Find records metrics for queries.
func (s *storeWithMetrics) Find(
	ctx context.Context,
	filter *query.Filter,
) ([]document.Document, error) {
	start := time.Now()
	docs, err := s.next.Find(ctx, filter)
	s.record(ctx, "find", start, err)
	return docs, err
}
