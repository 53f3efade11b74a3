package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/identity"
)

type fakeClient struct {
	authClient
	claims  map[string]interface{}
	created *auth.UserToCreate
	err     error
}

func (f *fakeClient) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Token{UID: "uid1", Claims: map[string]interface{}{"email": "a@b.co", "role": "admin"}}, nil
}

func (f *fakeClient) CreateUser(_ context.Context, u *auth.UserToCreate) (*auth.UserRecord, error) {
	f.created = u
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "uid1", Email: "a@b.co", DisplayName: "Ana Diaz"}}, nil
}

func (f *fakeClient) SetCustomUserClaims(_ context.Context, _ string, c map[string]interface{}) error {
	f.claims = c
	return f.err
}

func TestVerifyIDToken(t *testing.T) {
	p := &Provider{client: &fakeClient{}}
	tok, err := p.VerifyIDToken(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "uid1", tok.UID)
	assert.Equal(t, "a@b.co", tok.Email)
	assert.Equal(t, "admin", tok.Claims["role"])
}

func TestCreateUser_MapsRecord(t *testing.T) {
	fc := &fakeClient{}
	p := &Provider{client: fc}
	u, err := p.CreateUser(context.Background(), identityUser())
	require.NoError(t, err)
	require.NotNil(t, fc.created)
	assert.Equal(t, "uid1", u.UID)
	assert.Equal(t, "Ana Diaz", u.DisplayName)
	assert.NotNil(t, u.CustomClaims)
}

func TestSetCustomClaims_WrapsUnknownErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("backend down")}
	p := &Provider{client: fc}
	err := p.SetCustomClaims(context.Background(), "uid1", map[string]any{"role": "user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity/firebase")
	assert.Equal(t, "user", fc.claims["role"])
}

func identityUser() identity.UserToCreate {
	return identity.UserToCreate{Email: "A@b.co", Password: "secret1", DisplayName: "Ana Diaz"}
}
