package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	bare := New(ErrKindSchemaLoad, "no tables returned")
	assert.Equal(t, "[schema_load] no tables returned", bare.Error())

	wrapped := Wrap(ErrKindQueryFailed, "execute failed", errors.New("boom"))
	assert.Equal(t, "[query_failed] execute failed: boom", wrapped.Error())
}

func TestUnwrapTraversesCause(t *testing.T) {
	cause := errors.New("network down")
	err := Wrap(ErrKindConnectionFailed, "cannot reach warehouse", cause)

	require.ErrorIs(t, err, cause)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"schema load", New(ErrKindSchemaLoad, "x"), IsSchemaLoad, true},
		{"cancelled", New(ErrKindCancelled, "x"), IsCancelled, true},
		{"retry exhausted", New(ErrKindRetryExhausted, "x"), IsRetryExhausted, true},
		{"regeneration", New(ErrKindRegeneration, "x"), IsRegeneration, true},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(ErrKindTimeout, "x")), IsTimeout, true},
		{"wrong kind", New(ErrKindTimeout, "x"), IsCancelled, false},
		{"plain error", errors.New("x"), IsSchemaLoad, false},
		{"nil", nil, IsRetryExhausted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.err))
		})
	}
}
