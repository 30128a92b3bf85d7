package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("controller: %w", ErrForbidden)
	require.Same(t, ErrForbidden, FromError(wrapped))

	cause := stderrors.New("db down")
	got := FromError(cause)
	require.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	require.ErrorIs(t, got, cause)
}

func TestWithDetailDoesNotMutateCatalog(t *testing.T) {
	e := ErrMissingFields.WithDetail("email")
	require.Equal(t, "email", e.Detail)
	require.Empty(t, ErrMissingFields.Detail)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")
	WriteError(rec, ErrIdentityProvider.WithCause(stderrors.New("secret internals")))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret internals")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "IDENTITY_PROVIDER_ERROR", body["code"])
	require.Equal(t, "req-1", body["request_id"])
}
