package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"velure/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_WrapKeepsIdentity(t *testing.T) {
	err := ErrInvalidCredentials.WrapMessage("login")

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.False(t, errors.Is(err, ErrInvalidToken))

	var appErr AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode())
	assert.Equal(t, "Invalid credentials", appErr.Message())
}

func TestBaseError_WithDetailsMatchesOriginal(t *testing.T) {
	err := ErrValidationFailed.WithDetails("email is required")

	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "email is required", err.Details())
	assert.Empty(t, ErrValidationFailed.Details())
}

func TestDatabaseExecuteError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := errors.Wrap(NewDatabaseExecuteError(cause, "insert user"), "create user")

	assert.True(t, errors.Is(err, cause))

	appErr, ok := errors.AsType[AppError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
	assert.Equal(t, "insert user", appErr.Details())
	assert.Contains(t, err.Error(), "connection reset")
}
