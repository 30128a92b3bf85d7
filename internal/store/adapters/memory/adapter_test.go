package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventary/manager-service/internal/domain/repository"
	store "github.com/inventary/manager-service/internal/store"
)

func TestRepository_SaveAssignsIDAndUpserts(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	saved, err := r.Save(ctx, &repository.Manager{Email: "a@x.com", Role: "Director", Status: repository.StatusActive})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	saved.Status = repository.StatusInactive
	_, err = r.Save(ctx, saved)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	got, err := r.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusInactive, got.Status)
}

func TestRepository_Finders(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	for _, m := range []repository.Manager{
		{Email: "a@x.com", DocumentNumber: "1", Role: "DIRECTOR", Status: repository.StatusActive},
		{Email: "b@x.com", DocumentNumber: "2", Role: "director", Status: repository.StatusInactive},
		{Email: "c@x.com", DocumentNumber: "3", Role: "SECRETARIO", Status: repository.StatusActive},
	} {
		m := m
		_, err := r.Save(ctx, &m)
		require.NoError(t, err)
	}

	m, err := r.FindOne(ctx, repository.FieldDocumentNumber, "2")
	require.NoError(t, err)
	require.Equal(t, "b@x.com", m.Email)

	_, err = r.FindOne(ctx, repository.FieldEmail, "zzz@x.com")
	require.True(t, errors.Is(err, repository.ErrNotFound))

	byRole, err := r.FindAll(ctx, repository.FieldRole, "Director")
	require.NoError(t, err)
	require.Len(t, byRole, 2)

	active, err := r.FindAll(ctx, repository.FieldStatus, string(repository.StatusActive))
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "a@x.com", active[0].Email)

	none, err := r.FindAll(ctx, repository.FieldRole, "INVENTARIO")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = r.FindAll(ctx, repository.Field("gender"), "F")
	require.ErrorIs(t, err, repository.ErrUnsupportedField)
}

func TestRepository_GetByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	saved, err := r.Save(ctx, &repository.Manager{Email: "a@x.com"})
	require.NoError(t, err)

	saved.Email = "mutated@x.com"
	got, err := r.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
}

func TestRepository_FailSave(t *testing.T) {
	r := NewRepository()
	boom := errors.New("disk full")
	r.FailSave = boom

	_, err := r.Save(context.Background(), &repository.Manager{})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, r.Len())

	_, err = r.Save(context.Background(), &repository.Manager{})
	require.NoError(t, err)
}

func TestAdapter_Registered(t *testing.T) {
	conn, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	require.Equal(t, "memory", conn.Name())
	require.NoError(t, conn.Ping(context.Background()))
	require.NotNil(t, conn.Managers())
}
