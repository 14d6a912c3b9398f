package metrics

import (
	"context"
	"time"
)

// NoOpOperationMetrics is an OperationMetrics implementation that discards
// all recordings. Used when metrics collection is disabled.
type NoOpOperationMetrics struct{}

// NewNoOpOperationMetrics creates a new no-op metrics implementation.
func NewNoOpOperationMetrics() *NoOpOperationMetrics {
	return &NoOpOperationMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpOperationMetrics) RecordOperation(ctx context.Context, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpOperationMetrics) RecordDuration(
	ctx context.Context,
	operation string,
	duration time.Duration,
	status string,
) {
}
