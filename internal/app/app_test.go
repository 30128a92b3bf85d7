package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/inventary/manager-service/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	cfg, err := config.Load(p)
	require.NoError(t, err)
	return cfg
}

func signRole(t *testing.T, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "tester",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestNew_MemoryStack(t *testing.T) {
	cfg := loadConfig(t, `
storage: {driver: memory}
idp: {driver: memory}
authz: {mode: jwt, jwt_secret: `+testSecret+`}
rate: {enabled: true, backend: memory, max_requests: 100}
`)
	a, err := New(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Handler)
	t.Cleanup(srv.Close)

	do := func(method, path, token, body string) *http.Response {
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := do(http.MethodPost, "/v1/directives/manager/create", signRole(t, "DIRECTOR"),
		`{"firstName":"Ana","lastName":"Paz","documentNumber":"123","email":"a@x.com","role":"DIRECTOR"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodGet, "/v1/shared/manager/document/123", signRole(t, "INVENTARIO"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))

	resp = do(http.MethodGet, "/v1/directives/manager/actives", signRole(t, "INVENTARIO"), "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_UnknownStore(t *testing.T) {
	cfg := loadConfig(t, `
storage: {driver: memory}
idp: {driver: memory}
authz: {mode: jwt, jwt_secret: `+testSecret+`}
`)
	cfg.Storage.Driver = "oracle"
	_, err := New(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.Error(t, err)
}

func TestRun_GracefulShutdown(t *testing.T) {
	cfg := loadConfig(t, `
server: {addr: "127.0.0.1:0", shutdown_timeout: 2s}
storage: {driver: memory}
idp: {driver: memory}
authz: {mode: jwt, jwt_secret: `+testSecret+`}
`)
	a, err := New(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
