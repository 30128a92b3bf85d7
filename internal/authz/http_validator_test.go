package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPValidator_Validate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/validate" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			_, _ = w.Write([]byte(`{"valid":false}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"role":"SECRETARIO"}`))
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.URL+"/", nil, time.Second)

	d, err := v.Validate(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, Decision{Valid: true, Role: "SECRETARIO"}, d)

	d, err = v.Validate(context.Background(), "bad")
	require.NoError(t, err)
	require.False(t, d.Valid)
}

func TestHTTPValidator_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPValidator(srv.URL, nil, time.Second).Validate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrValidatorUnavailable)
}

func TestHTTPValidator_BadBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPValidator(srv.URL, nil, time.Second).Validate(context.Background(), "tok")
	require.Error(t, err)
}

func TestHTTPValidator_TimeoutDeniesThroughGate(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	v := NewHTTPValidator(srv.URL, nil, 50*time.Millisecond)
	_, err := v.Validate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrValidatorUnavailable)

	require.False(t, NewGate(v).Authorize(context.Background(), "Bearer tok", DirectiveRoles))
}

func TestHTTPValidator_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	v := NewHTTPValidator(srv.URL, nil, time.Second)
	require.NoError(t, v.Ping(context.Background()))

	srv.Close()
	require.Error(t, v.Ping(context.Background()))
}
