package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches wrapped code anywhere in the chain", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate")
		outer := Wrap(inner, CodeInternal, "operation failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeConflict))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeUnauthorized, "nope"))
		assert.True(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("false for plain errors and nil", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestErrorsIsIdentity(t *testing.T) {
	// Sentinel-style vars built with New must compare by identity through
	// errors.Is even after %w wrapping.
	sentinel := New(CodeConflict, "already issued")
	wrapped := fmt.Errorf("issue attribute: %w", sentinel)
	assert.True(t, errors.Is(wrapped, sentinel))
}
