package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewInternalError("failed to persist decision").WithCause(cause)

	assert.Contains(t, err.Error(), "failed to persist decision")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(ErrTransactionNotFound, ErrorTypeNotFound))
	assert.False(t, IsType(ErrTransactionNotFound, ErrorTypeInternal))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeNotFound))
}

func TestIsNotFoundThroughWrapping(t *testing.T) {
	wrapped := Wrap(ErrCaseNotFound, "loading case")
	require.Error(t, wrapped)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewInternalError("transient")))
	assert.False(t, IsRetryable(NewValidationError("BAD_INPUT", "bad input")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}
