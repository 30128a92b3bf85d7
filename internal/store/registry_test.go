package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct{ name string }

func (a fakeAdapter) Name() string { return a.name }
func (a fakeAdapter) Connect(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error) {
	return nil, nil
}

func TestRegisterAdapter_DuplicatePanics(t *testing.T) {
	RegisterAdapter(fakeAdapter{name: "fake-dup"})
	require.Panics(t, func() { RegisterAdapter(fakeAdapter{name: "fake-dup"}) })
	require.Contains(t, ListAdapters(), "fake-dup")
}

func TestOpenAdapter_Unknown(t *testing.T) {
	_, err := OpenAdapter(context.Background(), AdapterConfig{Name: "cassandra"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not registered")
}
