package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type seen struct {
	method, path, auth string
	body               []byte
}

func fakeAPI(t *testing.T, status int, resp string, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreate(t *testing.T) {
	var got seen
	srv := fakeAPI(t, http.StatusOK, `{"id":"m1","status":"A"}`, &got)

	out, err := run(t, "--api-url", srv.URL, "--token", "tk", "create",
		"--email", "a@x.com", "--document", "123", "--role", "DIRECTOR", "--first-name", "Ana")
	require.NoError(t, err)
	require.Contains(t, out, `"id":"m1"`)
	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, "/v1/directives/manager/create", got.path)
	require.Equal(t, "Bearer tk", got.auth)

	var body map[string]string
	require.NoError(t, json.Unmarshal(got.body, &body))
	require.Equal(t, "123", body["documentNumber"])
	require.NotContains(t, body, "gender")
}

func TestSetPasswordAndDeactivate(t *testing.T) {
	var got seen
	srv := fakeAPI(t, http.StatusOK, `{}`, &got)

	_, err := run(t, "--api-url", srv.URL, "--token", "tk", "set-password", "m1", "s3cret")
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, got.method)
	require.Equal(t, "/v1/directives/manager/updatePassword/m1", got.path)
	require.JSONEq(t, `{"password":"s3cret"}`, string(got.body))

	srv = fakeAPI(t, http.StatusNoContent, "", &got)
	out, err := run(t, "--api-url", srv.URL, "--token", "tk", "deactivate", "m1")
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, got.method)
	require.Contains(t, out, "status=204")
}

func TestErrors(t *testing.T) {
	t.Setenv("MANAGER_TOKEN", "")
	var got seen
	srv := fakeAPI(t, http.StatusForbidden, `{"code":"FORBIDDEN"}`, &got)

	_, err := run(t, "--api-url", srv.URL, "--token", "tk", "list", "--inactive")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=403")
	require.Equal(t, "/v1/directives/manager/inactives", got.path)

	_, err = run(t, "--api-url", srv.URL, "list")
	require.ErrorContains(t, err, "falta token")

	_, err = run(t, "--api-url", srv.URL, "--token", "tk", "get")
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	out, err := run(t, "token", "--secret", "0123456789abcdef0123456789abcdef", "--role", "DIRECTOR")
	require.NoError(t, err)
	require.Equal(t, 3, len(bytes.Split(bytes.TrimSpace([]byte(out)), []byte("."))))

	_, err = run(t, "token", "--secret", "short", "--role", "DIRECTOR")
	require.Error(t, err)
}
