package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_OrNil(t *testing.T) {
	verr := &Error{}
	assert.NoError(t, verr.OrNil())

	verr.Add("reason", "validation.required")
	err := verr.OrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason: validation.required")
}

func TestAs_UnwrapsWrappedErrors(t *testing.T) {
	// Arrange
	inner := New("toLocation", "validation.required")
	wrapped := fmt.Errorf("transfer rejected: %w", inner)

	// Act
	verr, ok := As(wrapped)

	// Assert
	require.True(t, ok)
	assert.True(t, verr.Has("toLocation"))
	assert.False(t, verr.Has("quantity"))
}
