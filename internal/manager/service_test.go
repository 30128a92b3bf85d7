package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/inventary/manager-service/internal/domain/repository"
	idpmem "github.com/inventary/manager-service/internal/idp/memory"
	"github.com/inventary/manager-service/internal/metrics"
	storemem "github.com/inventary/manager-service/internal/store/adapters/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// hookRepo permite observar el estado del provider en el momento del Save.
type hookRepo struct {
	repository.ManagerRepository
	onSave func(m *repository.Manager)
}

func (h *hookRepo) Save(ctx context.Context, m *repository.Manager) (*repository.Manager, error) {
	if h.onSave != nil {
		h.onSave(m)
	}
	return h.ManagerRepository.Save(ctx, m)
}

type fixture struct {
	svc      Service
	repo     *storemem.Repository
	hook     *hookRepo
	provider *idpmem.Provider
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := storemem.NewRepository()
	hook := &hookRepo{ManagerRepository: repo}
	provider := idpmem.New()
	n := 0
	provider.NewUID = func() string {
		n++
		return "uid-" + string(rune('0'+n))
	}
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &fixture{
		svc:      NewService(Deps{Repo: hook, Provider: provider, Clock: clock.Now}),
		repo:     repo,
		hook:     hook,
		provider: provider,
		clock:    clock,
	}
}

func anaProfile() Profile {
	return Profile{
		FirstName:      "Ana",
		LastName:       "Paz",
		DocumentType:   "DNI",
		DocumentNumber: "123",
		Gender:         "F",
		Address:        "Av. Siempre Viva 742",
		BirthPlace:     "Lima",
		Email:          "a@x.com",
		Role:           "DIRECTOR",
	}
}

func TestLifecycle_CreateDeactivateReactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)
	require.Equal(t, "uid-1", m.UID)
	require.Equal(t, repository.StatusActive, m.Status)
	require.Equal(t, "123", m.Password)

	acc, ok := f.provider.Account("uid-1")
	require.True(t, ok)
	require.Equal(t, "123", acc.Credential)
	require.Equal(t, "Ana Paz", acc.DisplayName)
	require.Equal(t, "DIRECTOR", acc.Claims["role"])
	require.False(t, acc.Disabled)

	m, err = f.svc.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusInactive, m.Status)
	acc, _ = f.provider.Account("uid-1")
	require.True(t, acc.Disabled)

	m, err = f.svc.Reactivate(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusActive, m.Status)
	acc, _ = f.provider.Account("uid-1")
	require.False(t, acc.Disabled)

	stored, err := f.svc.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusActive, stored.Status)
}

func TestCreate_InitialState(t *testing.T) {
	inputs := []Profile{
		anaProfile(),
		{FirstName: "Luis", LastName: "Rojas", DocumentNumber: "99887766", Email: "l@x.com", Role: "SECRETARIO"},
		{FirstName: "Eva", LastName: "Gil", DocumentNumber: "5", Email: "e@x.com", Role: "inventario", Gender: "F"},
	}
	for _, in := range inputs {
		t.Run(in.Email, func(t *testing.T) {
			f := newFixture(t)
			m, err := f.svc.Create(context.Background(), in)
			require.NoError(t, err)
			require.NotEmpty(t, m.ID)
			require.NotEmpty(t, m.UID)
			require.Equal(t, repository.StatusActive, m.Status)
			require.True(t, m.CreatedAt.Equal(m.UpdatedAt))
			require.Equal(t, in.DocumentNumber, m.Password)
			require.Equal(t, in.Role, m.Role)
		})
	}
}

func TestCreate_ProviderFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.provider.Fail(idpmem.OpCreateAccount, errors.New("email quota"))

	_, err := f.svc.Create(ctx, anaProfile())
	require.Error(t, err)
	require.True(t, IsProviderError(err))

	_, err = f.svc.FindByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Equal(t, 0, f.repo.Len())
	require.Equal(t, []string{"CreateAccount:a@x.com"}, f.provider.Calls())
}

func TestCreate_ClaimFailureLeavesProviderAccount(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("create"))
	f.provider.Fail(idpmem.OpSetRoleClaim, errors.New("claims too large"))

	_, err := f.svc.Create(context.Background(), anaProfile())
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "SetRoleClaim", pe.Op)

	require.Equal(t, 1, f.provider.Len())
	require.Equal(t, 0, f.repo.Len())
	require.Equal(t, before+1, testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("create")))
}

func TestCreate_StoreFailureIsReportedAsInconsistency(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("create"))
	boom := errors.New("write concern timeout")
	f.repo.FailSave = boom

	_, err := f.svc.Create(context.Background(), anaProfile())
	require.True(t, IsStoreError(err))
	require.ErrorIs(t, err, boom)

	_, live := f.provider.Account("uid-1")
	require.True(t, live)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("create")))
}

func TestCreate_InvalidProfileSkipsProvider(t *testing.T) {
	f := newFixture(t)
	p := anaProfile()
	p.Email = ""
	p.Role = " "

	_, err := f.svc.Create(context.Background(), p)
	require.ErrorIs(t, err, ErrInvalidProfile)
	require.Contains(t, err.Error(), "email")
	require.Contains(t, err.Error(), "role")
	require.Empty(t, f.provider.Calls())
}

func TestDeactivateReactivate_PreservesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	back, err := f.svc.Reactivate(ctx, created.ID)
	require.NoError(t, err)

	require.Equal(t, repository.StatusActive, back.Status)
	require.Equal(t, created.FirstName, back.FirstName)
	require.Equal(t, created.LastName, back.LastName)
	require.Equal(t, created.DocumentType, back.DocumentType)
	require.Equal(t, created.DocumentNumber, back.DocumentNumber)
	require.Equal(t, created.Gender, back.Gender)
	require.Equal(t, created.Address, back.Address)
	require.Equal(t, created.BirthPlace, back.BirthPlace)
	require.Equal(t, created.Email, back.Email)
	require.Equal(t, created.Role, back.Role)
	require.Equal(t, created.UID, back.UID)
	require.Equal(t, created.Password, back.Password)
	require.True(t, created.CreatedAt.Equal(back.CreatedAt))
}

func TestDeactivate_ProviderLegRunsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	var disabledAtSave bool
	f.hook.onSave = func(m *repository.Manager) {
		acc, _ := f.provider.Account(m.UID)
		disabledAtSave = acc.Disabled
	}
	_, err = f.svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, disabledAtSave)
}

func TestDeactivate_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Deactivate(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Empty(t, f.provider.Calls())
}

func TestDeactivate_ProviderFailureLeavesLocalUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	f.provider.Fail(idpmem.OpSetDisabled, errors.New("unavailable"))
	_, err = f.svc.Deactivate(ctx, created.ID)
	require.True(t, IsProviderError(err))

	stored, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusActive, stored.Status)
	require.True(t, stored.UpdatedAt.Equal(created.UpdatedAt))
}

func TestDeactivate_StoreFailureCountsInconsistency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("deactivate"))
	f.repo.FailSave = errors.New("primary stepped down")
	_, err = f.svc.Deactivate(ctx, created.ID)
	require.True(t, IsStoreError(err))

	acc, _ := f.provider.Account(created.UID)
	require.True(t, acc.Disabled)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("deactivate")))
}

func TestUpdate_ChangesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, created.ID, Profile{Address: "Jr. Nuevo 1", LastName: "Paz Soldán"})
	require.NoError(t, err)

	require.Equal(t, "Jr. Nuevo 1", updated.Address)
	require.Equal(t, "Paz Soldán", updated.LastName)
	require.Equal(t, created.FirstName, updated.FirstName)
	require.Equal(t, created.Email, updated.Email)
	require.Equal(t, created.Role, updated.Role)
	require.Equal(t, created.Status, updated.Status)
	require.Equal(t, created.UID, updated.UID)
	require.Equal(t, created.Password, updated.Password)
	require.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	acc, _ := f.provider.Account(created.UID)
	require.Equal(t, "Ana Paz Soldán", acc.DisplayName)
	require.Equal(t, "DIRECTOR", acc.Claims["role"])
}

func TestUpdate_UpdatedAtNeverMovesBackwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	f.clock.Advance(-24 * time.Hour)
	updated, err := f.svc.Update(ctx, created.ID, Profile{Gender: "X"})
	require.NoError(t, err)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdate_RoleChangeRefreshesClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, created.ID, Profile{Role: "SECRETARIO"})
	require.NoError(t, err)

	acc, _ := f.provider.Account(created.UID)
	require.Equal(t, "SECRETARIO", acc.Claims["role"])
	require.Equal(t, []string{
		"CreateAccount:a@x.com",
		"SetRoleClaim:uid-1",
		"SetDisplayName:uid-1",
		"SetRoleClaim:uid-1",
	}, f.provider.Calls())
}

func TestUpdate_ProviderFailureAbortsBeforeSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	f.provider.Fail(idpmem.OpSetDisplayName, errors.New("rate limited"))
	_, err = f.svc.Update(ctx, created.ID, Profile{FirstName: "Anita"})
	require.True(t, IsProviderError(err))

	stored, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", stored.FirstName)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), "nope", Profile{FirstName: "X"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	m, err := f.svc.UpdateCredential(ctx, created.ID, "n3w-secret")
	require.NoError(t, err)
	require.Equal(t, "n3w-secret", m.Password)
	acc, _ := f.provider.Account(created.UID)
	require.Equal(t, "n3w-secret", acc.Credential)
}

func TestUpdateCredential_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)

	_, err = f.svc.UpdateCredential(ctx, created.ID, "")
	require.ErrorIs(t, err, ErrInvalidProfile)

	f.provider.Fail(idpmem.OpSetCredential, errors.New("weak password"))
	_, err = f.svc.UpdateCredential(ctx, created.ID, "abc")
	require.True(t, IsProviderError(err))

	stored, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "123", stored.Password)

	_, err = f.svc.UpdateCredential(ctx, "ghost", "abc")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByID_MissingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m, err := f.svc.FindByID(ctx, "does-not-exist")
		require.Nil(t, m)
		require.ErrorIs(t, err, repository.ErrNotFound)
	}
	require.Equal(t, 0, f.repo.Len())
	require.Empty(t, f.provider.Calls())
}

func TestFinders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, anaProfile())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, Profile{FirstName: "Luis", LastName: "Rojas", DocumentNumber: "456", Email: "l@x.com", Role: "director"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, Profile{FirstName: "Eva", LastName: "Gil", DocumentNumber: "789", Email: "e@x.com", Role: "INVENTARIO"})
	require.NoError(t, err)
	_, err = f.svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)

	byDoc, err := f.svc.FindByDocumentNumber(ctx, "456")
	require.NoError(t, err)
	require.Equal(t, "l@x.com", byDoc.Email)

	_, err = f.svc.FindByDocumentNumber(ctx, "000")
	require.ErrorIs(t, err, repository.ErrNotFound)

	directors, err := f.svc.FindByRole(ctx, "Director")
	require.NoError(t, err)
	require.Len(t, directors, 2)

	none, err := f.svc.FindByRole(ctx, "SECRETARIO")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	active, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)

	inactive, err := f.svc.ListInactive(ctx)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	require.Equal(t, a.ID, inactive[0].ID)
}

func TestWelcome(t *testing.T) {
	require.Equal(t, "Bienvenidos al microservicio de encargado", newFixture(t).svc.Welcome())
}
