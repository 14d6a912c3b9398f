package storage

import (
	apperrors "github.com/allisson/privstore/internal/errors"
)

// Storage facade error definitions.
var (
	// ErrInvalidAccountID indicates a facade constructed with a blank account id.
	ErrInvalidAccountID = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid account id")

	// ErrMasterKeyNotFound indicates that no master key is available: the
	// server has none, or the cache is empty and no listener is registered to
	// supply one.
	ErrMasterKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "Master key not found.")

	// ErrDuplicateMasterKey indicates an attempt to create a master key for an
	// account that already has one.
	ErrDuplicateMasterKey = apperrors.Wrap(apperrors.ErrConflict, "master key already exists")

	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = apperrors.Wrap(apperrors.ErrNotFound, "document not found")

	// ErrDuplicateDocument indicates an insert for a blinded id that already
	// exists.
	ErrDuplicateDocument = apperrors.Wrap(apperrors.ErrConflict, "document already exists")

	// ErrListenerAlreadyRegistered indicates a second master-key listener
	// registration while one is still set.
	ErrListenerAlreadyRegistered = apperrors.Wrap(
		apperrors.ErrInvalidInput,
		"master key listener already registered",
	)

	// ErrInvalidKeyResponse indicates a listener response without a master key.
	ErrInvalidKeyResponse = apperrors.Wrap(
		apperrors.ErrInvalidInput,
		"listener response must carry a master key",
	)
)
