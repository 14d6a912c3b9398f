package storage

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/privstore/document"
	"github.com/allisson/privstore/metrics"
)

func TestWithMetrics(t *testing.T) {
	provider, err := metrics.NewProvider("privstore")
	require.NoError(t, err)
	defer func() { require.NoError(t, provider.Shutdown(context.Background())) }()

	m, err := metrics.NewOperationMetrics(provider.MeterProvider(), "privstore")
	require.NoError(t, err)

	facade, _ := newFacade(t)
	store := WithMetrics(facade, m)
	ctx := context.Background()

	store.EnsureIndex("k")
	require.NoError(t, store.Insert(ctx, document.Document{"id": "foo", "k": "v"}))

	// An error outcome records too.
	err = store.Insert(ctx, document.Document{"id": "foo"})
	assert.ErrorIs(t, err, ErrDuplicateDocument)

	_, err = store.Get(ctx, "foo")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	provider.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body := recorder.Body.String()

	assert.True(t, strings.Contains(body, "privstore_operations_total"))
	assert.True(t, strings.Contains(body, `operation="insert"`))
	assert.True(t, strings.Contains(body, `operation="get"`))
	assert.True(t, strings.Contains(body, `status="error"`))
	assert.True(t, strings.Contains(body, `status="success"`))
}
