package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/privstore/internal/errors"
)

func TestEncodeBase64URL(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: nil,
			want:  "",
		},
		{
			name:  "simple bytes",
			input: []byte("hello"),
			want:  "aGVsbG8",
		},
		{
			name:  "bytes requiring url-safe alphabet",
			input: []byte{0xfb, 0xff, 0xfe},
			want:  "-__-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeBase64URL(tt.input))
		})
	}
}

func TestDecodeBase64URL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "round trip",
			input: "aGVsbG8",
			want:  []byte("hello"),
		},
		{
			name:  "empty string",
			input: "",
			want:  []byte{},
		},
		{
			name:    "padding rejected",
			input:   "aGVsbG8=",
			wantErr: true,
		},
		{
			name:    "padding in the middle rejected",
			input:   "aGVs=bG8",
			wantErr: true,
		},
		{
			name:    "standard alphabet rejected",
			input:   "+/+/",
			wantErr: true,
		},
		{
			name:    "whitespace rejected",
			input:   "aGVs bG8",
			wantErr: true,
		},
		{
			name:    "non-canonical trailing bits rejected",
			input:   "aGVsbG9", // last symbol carries non-zero unused bits
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64URL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBase64URL)
				assert.ErrorIs(t, err, apperrors.ErrMalformed)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	// Must not panic on nil.
	Zero(nil)
}
