package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := New("TEST", "something failed", http.StatusBadRequest)
	require.Equal(t, "something failed", err.Error())

	wrapped := err.WithInternal(errors.New("boom"))
	require.Equal(t, "something failed: boom", wrapped.Error())
	require.EqualError(t, wrapped.Unwrap(), "boom")
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrGone)
	require.Equal(t, http.StatusGone, appErr.StatusCode)

	generic := FromError(errors.New("db down"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.EqualError(t, generic.Internal, "db down")
}

func TestWrapKeepsOriginal(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, "export failed")

	require.True(t, errors.Is(err, cause))
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
}
