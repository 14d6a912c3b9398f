// Package query validates caller-supplied filters and translates them into
// the blinded payloads the storage server can match without plaintext.
package query

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/privstore/internal/errors"
	appvalidation "github.com/allisson/privstore/internal/validation"
	"github.com/allisson/privstore/masterkey"
)

// Filter selects documents by equality or attribute presence. Exactly one of
// Equals or Has must be set.
//
// Equals: every (key, value) pair inside one map must match a document (AND);
// multiple maps are OR-ed together. Has: every listed attribute name must be
// present on a document (AND).
type Filter struct {
	Equals []map[string]any
	Has    []string
}

// Validate checks the filter shape: exactly one of Equals or Has, no empty
// maps, and no blank attribute names.
func (f *Filter) Validate() error {
	hasEquals := len(f.Equals) > 0
	hasHas := len(f.Has) > 0

	if hasEquals && hasHas {
		return apperrors.Wrap(ErrInvalidFilter, "only one of equals or has may be set")
	}
	if !hasEquals && !hasHas {
		return apperrors.Wrap(ErrInvalidFilter, "one of equals or has must be set")
	}

	if hasEquals {
		for _, clause := range f.Equals {
			if len(clause) == 0 {
				return apperrors.Wrap(ErrInvalidFilter, "equals clause must not be empty")
			}
			for attrKey := range clause {
				if err := validation.Validate(attrKey, validation.Required, appvalidation.NotBlank); err != nil {
					return apperrors.Wrap(ErrInvalidFilter, "equals attribute name must not be blank")
				}
			}
		}
	}

	for _, name := range f.Has {
		if err := validation.Validate(name, validation.Required, appvalidation.NotBlank); err != nil {
			return apperrors.Wrap(ErrInvalidFilter, "has attribute name must not be blank")
		}
	}

	return nil
}

// BlindedQuery is the server-side query payload. Every token is an opaque
// blinded value; the server matches them against the blinded attributes of
// stored documents.
type BlindedQuery struct {
	Equals []map[string]string `json:"equals,omitempty"`
	Has    []string            `json:"has,omitempty"`
}

// Plan validates the filter and translates it into its blinded form. Each
// equals pair (k, v) becomes blind(k) → blind(JSON({k: v})); each has name
// becomes blind(name). No client-side result filtering happens afterwards;
// the server is trusted to honor the filter semantics.
func (f *Filter) Plan(key *masterkey.MasterKey) (*BlindedQuery, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	planned := &BlindedQuery{}

	for _, clause := range f.Equals {
		blinded := make(map[string]string, len(clause))
		for attrKey, value := range clause {
			pair, err := json.Marshal(map[string]any{attrKey: value})
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
			}
			blinded[key.BlindString(attrKey)] = key.Blind(pair)
		}
		planned.Equals = append(planned.Equals, blinded)
	}

	for _, name := range f.Has {
		planned.Has = append(planned.Has, key.BlindString(name))
	}

	return planned, nil
}

// Equals builds a single-clause equality filter.
func Equals(clause map[string]any) *Filter {
	return &Filter{Equals: []map[string]any{clause}}
}

// EqualsAny builds a multi-clause equality filter; clauses are OR-ed.
func EqualsAny(clauses ...map[string]any) *Filter {
	return &Filter{Equals: clauses}
}

// Has builds a presence filter; names are AND-ed.
func Has(names ...string) *Filter {
	return &Filter{Has: names}
}
