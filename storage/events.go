package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/privstore/masterkey"
)

// EventMasterKeyRequest is the name carried by every MasterKeyRequest.
const EventMasterKeyRequest = "MasterKeyRequest"

// MasterKeyRequest asks the application for an unlocked master key. The
// facade emits one whenever an operation needs the key and the cache is
// empty; the application typically prompts the user for the password,
// unwraps, and returns the key in its response.
type MasterKeyRequest struct {
	Name      string
	AccountID string
	RequestID uuid.UUID
}

// KeyResponse carries the unlocked key supplied by a listener. A zero
// Timeout selects the facade's configured cache timeout.
type KeyResponse struct {
	Key     *masterkey.MasterKey
	Timeout time.Duration
}

// MasterKeyListener answers MasterKeyRequest events. At most one listener is
// registered per facade; the handler may block (e.g., on user input) and must
// honor ctx.
type MasterKeyListener interface {
	HandleMasterKeyRequest(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error)
}

// MasterKeyListenerFunc adapts a function to the MasterKeyListener interface.
type MasterKeyListenerFunc func(ctx context.Context, req *MasterKeyRequest) (*KeyResponse, error)

// HandleMasterKeyRequest calls f.
func (f MasterKeyListenerFunc) HandleMasterKeyRequest(
	ctx context.Context,
	req *MasterKeyRequest,
) (*KeyResponse, error) {
	return f(ctx, req)
}
