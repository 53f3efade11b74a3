package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
)

var origin = dto.Origin{ClientIP: "10.0.0.1", UserAgent: "test"}

func login(t *testing.T, e *env, svc SessionService, uid, addr string) *dto.SessionResult {
	t.Helper()
	idToken, err := e.idp.SignIDToken(uid, addr)
	require.NoError(t, err)
	res, err := svc.Login(context.Background(), dto.LoginRequest{TokenAuth: idToken}, origin)
	require.NoError(t, err)
	return res
}

func refreshClaims(t *testing.T, e *env, raw string) *jwtx.Claims {
	t.Helper()
	c, err := e.deps.Issuer.Parse(jwtx.KindRefresh, raw)
	require.NoError(t, err)
	return c
}

func TestLogin_InvalidToken(t *testing.T) {
	e := newEnv(t)
	_, err := NewSessionService(e.deps).Login(context.Background(), dto.LoginRequest{TokenAuth: "garbage"}, origin)
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestLogin_NoUserDocument(t *testing.T) {
	e := newEnv(t)
	idToken, err := e.idp.SignIDToken("ghost", "ghost@x.io")
	require.NoError(t, err)
	_, err = NewSessionService(e.deps).Login(context.Background(), dto.LoginRequest{TokenAuth: idToken}, origin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	uid := e.seed(t, "ana@x.io")
	svc := NewSessionService(e.deps)

	res := login(t, e, svc, uid, "ana@x.io")
	assert.NotEmpty(t, res.Access.Token)
	assert.Positive(t, res.Access.ExpiresIn)
	require.NotEmpty(t, res.RefreshToken)

	access, err := e.deps.Issuer.Parse(jwtx.KindAccess, res.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, access.ID)
	assert.Equal(t, "admin", access.Role)
	assert.Equal(t, "10.0.0.1", access.MetaData.RegisteredIP)

	user, err := e.store.Get(ctx, UsersCollection, uid)
	require.NoError(t, err)
	assert.Equal(t, "active", user.String("status"))

	// la sesión guarda el hash, nunca el token
	sessions, err := e.store.List(ctx, SessionsCollection(uid), nil, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, tokens.SHA256Base64URL(res.RefreshToken), sessions[0].String("refreshToken"))

	claims := refreshClaims(t, e, res.RefreshToken)
	refreshed, err := svc.Refresh(ctx, claims, res.RefreshToken, origin)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access.Token)
	assert.Empty(t, refreshed.RefreshToken)

	require.NoError(t, svc.Logout(ctx, claims, res.RefreshToken))
	user, err = e.store.Get(ctx, UsersCollection, uid)
	require.NoError(t, err)
	assert.Equal(t, "inactive", user.String("status"))

	_, err = svc.Refresh(ctx, claims, res.RefreshToken, origin)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Logout(ctx, claims, res.RefreshToken), ErrSessionNotFound)
}

func TestRefresh_Rotation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.deps.RotateRefresh = true
	uid := e.seed(t, "ana@x.io")
	svc := NewSessionService(e.deps)

	res := login(t, e, svc, uid, "ana@x.io")
	claims := refreshClaims(t, e, res.RefreshToken)

	rotated, err := svc.Refresh(ctx, claims, res.RefreshToken, origin)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	// el refresh anterior ya no tiene sesión
	_, err = svc.Refresh(ctx, claims, res.RefreshToken, origin)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sessions, err := e.store.List(ctx, SessionsCollection(uid), nil, nil)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
