package query

import (
	apperrors "github.com/allisson/privstore/internal/errors"
)

// ErrInvalidFilter indicates a filter with an invalid shape: both equals and
// has set, neither set, an empty equals clause, or a blank attribute name.
var ErrInvalidFilter = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid filter")
