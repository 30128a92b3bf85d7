package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventary/manager-service/internal/idp"
)

func TestProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.NewUID = func() string { return "uid-1" }

	uid, err := p.CreateAccount(ctx, "a@x.com", "123", "Ana Paz")
	require.NoError(t, err)
	require.Equal(t, "uid-1", uid)

	require.NoError(t, p.SetRoleClaim(ctx, uid, "DIRECTOR"))
	require.NoError(t, p.SetDisabled(ctx, uid, true))
	require.NoError(t, p.SetDisplayName(ctx, uid, "Ana María"))
	require.NoError(t, p.SetCredential(ctx, uid, "s3cret"))

	acc, ok := p.Account(uid)
	require.True(t, ok)
	require.Equal(t, "DIRECTOR", acc.Claims[idp.RoleClaim])
	require.True(t, acc.Disabled)
	require.Equal(t, "Ana María", acc.DisplayName)
	require.Equal(t, "s3cret", acc.Credential)

	require.Equal(t, []string{
		"CreateAccount:a@x.com",
		"SetRoleClaim:uid-1",
		"SetDisabled:uid-1",
		"SetDisplayName:uid-1",
		"SetCredential:uid-1",
	}, p.Calls())
}

func TestProvider_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p := New()
	_, err := p.CreateAccount(ctx, "a@x.com", "1", "A B")
	require.NoError(t, err)
	_, err = p.CreateAccount(ctx, "A@X.com", "1", "A B")
	require.ErrorIs(t, err, idp.ErrAccountExists)
	require.Equal(t, 1, p.Len())
}

func TestProvider_UnknownUID(t *testing.T) {
	err := New().SetDisabled(context.Background(), "ghost", true)
	require.ErrorIs(t, err, idp.ErrAccountNotFound)
}

func TestProvider_FailIsOneShot(t *testing.T) {
	ctx := context.Background()
	p := New()
	boom := errors.New("quota exceeded")
	p.Fail(OpCreateAccount, boom)

	_, err := p.CreateAccount(ctx, "a@x.com", "1", "A B")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, p.Len())

	_, err = p.CreateAccount(ctx, "a@x.com", "1", "A B")
	require.NoError(t, err)
}
