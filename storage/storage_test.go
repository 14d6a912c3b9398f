package storage

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/privstore/document"
	apperrors "github.com/allisson/privstore/internal/errors"
	"github.com/allisson/privstore/masterkey"
	"github.com/allisson/privstore/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newFacade builds a facade over a fresh in-memory transport and creates its
// master key.
func newFacade(t *testing.T, opts ...Option) (*Facade, *MemoryTransport) {
	t.Helper()

	transport := NewMemoryTransport()
	facade, err := New("acct-1", transport, opts...)
	require.NoError(t, err)
	t.Cleanup(facade.ClearKeyCache)

	require.NoError(t, facade.CreateMasterKey(context.Background(), "hunter2"))
	return facade, transport
}

func TestNew_Validation(t *testing.T) {
	transport := NewMemoryTransport()

	tests := []struct {
		name      string
		accountID string
		transport DocumentTransport
	}{
		{name: "blank account id", accountID: "  ", transport: transport},
		{name: "empty account id", accountID: "", transport: transport},
		{name: "nil transport", accountID: "acct-1", transport: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.accountID, tt.transport)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestFacade_InsertAndGet(t *testing.T) {
	// S1: create_master_key, insert, get round trip.
	facade, _ := newFacade(t)
	ctx := context.Background()

	require.NoError(t, facade.Insert(ctx, document.Document{"id": "foo", "a": float64(1)}))

	doc, err := facade.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, document.Document{"id": "foo", "a": float64(1)}, doc)
}

func TestFacade_InsertDuplicateAndUpdate(t *testing.T) {
	// S2: duplicate insert conflicts; update replaces.
	facade, _ := newFacade(t)
	ctx := context.Background()

	require.NoError(t, facade.Insert(ctx, document.Document{"id": "foo", "a": float64(1)}))

	err := facade.Insert(ctx, document.Document{"id": "foo", "a": float64(2)})
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := facade.Update(ctx, document.Document{"id": "foo", "a": float64(2)})
	require.NoError(t, err)
	assert.NotNil(t, stored.JWE)

	doc, err := facade.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, document.Document{"id": "foo", "a": float64(2)}, doc)
}

func TestFacade_FindHas(t *testing.T) {
	// S3: presence query over an indexed attribute.
	facade, _ := newFacade(t)
	ctx := context.Background()

	facade.EnsureIndex("indexedKey")
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h1", "indexedKey": "v1"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h2", "indexedKey": "v2"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h3", "other": "v3"}))

	docs, err := facade.Find(ctx, query.Has("indexedKey"))
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, doc := range docs {
		id, err := doc.ID()
		require.NoError(t, err)
		ids[id] = true
	}
	assert.Equal(t, map[string]bool{"h1": true, "h2": true}, ids)
}

func TestFacade_FindEquals(t *testing.T) {
	// S4: exact equality query.
	facade, _ := newFacade(t)
	ctx := context.Background()

	facade.EnsureIndex("indexedKey")
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h1", "indexedKey": "v1"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h2", "indexedKey": "v2"}))

	docs, err := facade.Find(ctx, query.Equals(map[string]any{"indexedKey": "v1"}))
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, document.Document{"id": "h1", "indexedKey": "v1"}, docs[0])
}

func TestFacade_FindEqualsOrSemantics(t *testing.T) {
	// S5: multiple equals clauses are OR-ed.
	facade, _ := newFacade(t)
	ctx := context.Background()

	facade.EnsureIndex("indexedKey")
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h1", "indexedKey": "v1"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h2", "indexedKey": "v2"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h3", "indexedKey": "v3"}))

	docs, err := facade.Find(ctx, query.EqualsAny(
		map[string]any{"indexedKey": "v1"},
		map[string]any{"indexedKey": "v2"},
	))
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFacade_FindEqualsAndSemantics(t *testing.T) {
	// All pairs within one equals clause must match.
	facade, _ := newFacade(t)
	ctx := context.Background()

	facade.EnsureIndex("k1")
	facade.EnsureIndex("k2")
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h1", "k1": "a", "k2": "b"}))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "h2", "k1": "a", "k2": "c"}))

	docs, err := facade.Find(ctx, query.Equals(map[string]any{"k1": "a", "k2": "b"}))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h1", docs[0]["id"])
}

func TestFacade_FindExclusivity(t *testing.T) {
	// Invariant 10: defining both equals and has is caller misuse.
	facade, _ := newFacade(t)

	_, err := facade.Find(context.Background(), &query.Filter{
		Equals: []map[string]any{{"k": "v"}},
		Has:    []string{"k"},
	})
	assert.ErrorIs(t, err, query.ErrInvalidFilter)
}

func TestFacade_IndexSetAffectsFutureWritesOnly(t *testing.T) {
	facade, _ := newFacade(t)
	ctx := context.Background()

	require.NoError(t, facade.Insert(ctx, document.Document{"id": "before", "k": "v"}))
	facade.EnsureIndex("k")
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "after", "k": "v"}))

	docs, err := facade.Find(ctx, query.Has("k"))
	require.NoError(t, err)

	// Only the record written after EnsureIndex carries the blinded attribute.
	require.Len(t, docs, 1)
	assert.Equal(t, "after", docs[0]["id"])
}

func TestFacade_Delete(t *testing.T) {
	facade, _ := newFacade(t)
	ctx := context.Background()

	require.NoError(t, facade.Insert(ctx, document.Document{"id": "doomed"}))

	deleted, err := facade.Delete(ctx, "doomed")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = facade.Delete(ctx, "doomed")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = facade.Get(ctx, "doomed")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFacade_CreateMasterKeyDuplicate(t *testing.T) {
	// Invariant 9: the second create conflicts.
	facade, _ := newFacade(t)

	err := facade.CreateMasterKey(context.Background(), "another password")
	assert.ErrorIs(t, err, ErrDuplicateMasterKey)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestFacade_ChangeMasterKeyPassword(t *testing.T) {
	facade, _ := newFacade(t)
	ctx := context.Background()

	require.NoError(t, facade.Insert(ctx, document.Document{"id": "kept"}))
	require.NoError(t, facade.ChangeMasterKeyPassword(ctx, "swordfish"))

	// The old password no longer unwraps; the new one recovers a key that
	// still reads existing data.
	_, err := facade.GetMasterKey(ctx, "hunter2")
	assert.ErrorIs(t, err, masterkey.ErrDecryptionFailed)

	key, err := facade.GetMasterKey(ctx, "swordfish")
	require.NoError(t, err)
	defer key.Close()

	facade.ClearKeyCache()
	require.NoError(t, facade.OnMasterKeyRequest(MasterKeyListenerFunc(
		func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error) {
			return &KeyResponse{Key: key}, nil
		},
	)))

	doc, err := facade.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", doc["id"])
}

func TestFacade_MasterKeyListenerFlow(t *testing.T) {
	// S6: no listener → not found; registered listener supplies the key.
	seed, transport := newFacade(t)
	ctx := context.Background()
	require.NoError(t, seed.Insert(ctx, document.Document{"id": "x", "v": float64(1)}))

	fresh, err := New("acct-1", transport)
	require.NoError(t, err)
	t.Cleanup(fresh.ClearKeyCache)

	_, err = fresh.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "Master key not found.")

	var calls atomic.Int32
	listener := MasterKeyListenerFunc(
		func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error) {
			calls.Add(1)
			assert.Equal(t, EventMasterKeyRequest, req.Name)
			assert.Equal(t, "acct-1", req.AccountID)

			key, err := fresh.GetMasterKey(ctx, "hunter2")
			if err != nil {
				return nil, err
			}
			return &KeyResponse{Key: key}, nil
		},
	)
	require.NoError(t, fresh.OnMasterKeyRequest(listener))

	doc, err := fresh.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, document.Document{"id": "x", "v": float64(1)}, doc)

	// The key is now cached; further operations do not re-dispatch.
	_, err = fresh.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFacade_ListenerInvalidResponse(t *testing.T) {
	facade, _ := newFacade(t)
	facade.ClearKeyCache()

	require.NoError(t, facade.OnMasterKeyRequest(MasterKeyListenerFunc(
		func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error) {
			return &KeyResponse{}, nil
		},
	)))

	_, err := facade.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidKeyResponse)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFacade_ListenerRegistration(t *testing.T) {
	facade, _ := newFacade(t)

	listener := MasterKeyListenerFunc(
		func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error) {
			return nil, nil
		},
	)

	require.NoError(t, facade.OnMasterKeyRequest(listener))
	err := facade.OnMasterKeyRequest(listener)
	assert.ErrorIs(t, err, ErrListenerAlreadyRegistered)

	// Removing frees the slot for a new registration.
	facade.RemoveMasterKeyListener()
	assert.NoError(t, facade.OnMasterKeyRequest(listener))
	facade.RemoveMasterKeyListener()
}

func TestFacade_KeyCacheExpiryTriggersListener(t *testing.T) {
	// Invariant 8 at the facade level: expiry collapses to Absent and the
	// next operation re-requests the key.
	transport := NewMemoryTransport()
	facade, err := New("acct-1", transport, WithKeyCacheTimeout(30*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(facade.ClearKeyCache)

	ctx := context.Background()
	require.NoError(t, facade.CreateMasterKey(ctx, "hunter2"))
	require.NoError(t, facade.Insert(ctx, document.Document{"id": "x"}))

	var calls atomic.Int32
	require.NoError(t, facade.OnMasterKeyRequest(MasterKeyListenerFunc(
		func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error) {
			calls.Add(1)
			key, err := facade.GetMasterKey(ctx, "hunter2")
			if err != nil {
				return nil, err
			}
			return &KeyResponse{Key: key}, nil
		},
	)))

	// Let the cached key expire without touching it (a cache hit would slide
	// its TTL), then operate again: the listener must fire.
	time.Sleep(150 * time.Millisecond)
	_, ok := facade.cache.Get()
	assert.False(t, ok)

	_, err = facade.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFacade_OperationsWithoutMasterKey(t *testing.T) {
	transport := NewMemoryTransport()
	facade, err := New("acct-1", transport)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = facade.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)

	err = facade.Insert(ctx, document.Document{"id": "x"})
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)

	_, err = facade.Find(ctx, query.Has("k"))
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)

	_, err = facade.Delete(ctx, "x")
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)
}

func TestFacade_CancelledContext(t *testing.T) {
	facade, _ := newFacade(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := facade.Get(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFacade_InvalidIDs(t *testing.T) {
	facade, _ := newFacade(t)
	ctx := context.Background()

	_, err := facade.Get(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = facade.Delete(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = facade.Insert(ctx, document.Document{"a": float64(1)})
	assert.ErrorIs(t, err, document.ErrInvalidDocumentID)
}

func TestEndpointRoot(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		accountID string
		want      string
	}{
		{
			name:      "default base url",
			baseURL:   "",
			accountID: "acct-1",
			want:      "/private-storage/acct-1",
		},
		{
			name:      "custom base url with trailing slash",
			baseURL:   "/vault/",
			accountID: "acct-1",
			want:      "/vault/acct-1",
		},
		{
			name:      "account id requiring escaping",
			baseURL:   "/private-storage",
			accountID: "user/with spaces",
			want:      "/private-storage/user%2Fwith%20spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EndpointRoot(tt.baseURL, tt.accountID))
		})
	}
}
