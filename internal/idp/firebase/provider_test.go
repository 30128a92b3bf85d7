package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"

	"github.com/inventary/manager-service/internal/idp"
)

type fakeAuth struct {
	created   []*auth.UserToCreate
	updated   map[string]int
	claims    map[string]map[string]interface{}
	updateErr error
}

func (f *fakeAuth) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	f.created = append(f.created, user)
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "fb-uid-1"}}, nil
}

func (f *fakeAuth) UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated == nil {
		f.updated = map[string]int{}
	}
	f.updated[uid]++
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}}, nil
}

func (f *fakeAuth) SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error {
	if f.claims == nil {
		f.claims = map[string]map[string]interface{}{}
	}
	f.claims[uid] = customClaims
	return nil
}

func TestProvider_CreateAndClaims(t *testing.T) {
	fa := &fakeAuth{}
	p := &Provider{client: fa}
	ctx := context.Background()

	uid, err := p.CreateAccount(ctx, "a@x.com", "123456", "Ana Paz")
	require.NoError(t, err)
	require.Equal(t, "fb-uid-1", uid)
	require.Len(t, fa.created, 1)

	require.NoError(t, p.SetRoleClaim(ctx, uid, "DIRECTOR"))
	require.Equal(t, map[string]interface{}{"role": "DIRECTOR"}, fa.claims[uid])
}

func TestProvider_UpdatesGoThroughUpdateUser(t *testing.T) {
	fa := &fakeAuth{}
	p := &Provider{client: fa}
	ctx := context.Background()

	require.NoError(t, p.SetDisabled(ctx, "u1", true))
	require.NoError(t, p.SetDisplayName(ctx, "u1", "Ana Paz"))
	require.NoError(t, p.SetCredential(ctx, "u1", "nuevo-secreto"))
	require.Equal(t, 3, fa.updated["u1"])
}

func TestProvider_WrapsErrors(t *testing.T) {
	boom := errors.New("backend unavailable")
	p := &Provider{client: &fakeAuth{updateErr: boom}}

	err := p.SetDisabled(context.Background(), "u1", true)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "firebase: set disabled")
	require.NotErrorIs(t, err, idp.ErrAccountNotFound)
}
