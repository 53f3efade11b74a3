package local

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/security/password"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/store/adapters/memory"
)

var cheapHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func newProvider(t *testing.T, mutate ...func(*Options)) *Provider {
	t.Helper()
	opts := Options{
		Store:       memory.NewFacade(store.Options{}),
		Cache:       cache.NewMemory("t:", time.Minute),
		TokenSecret: []byte("local-identity-secret"),
		ResetURL:    "https://app.example.com/reset",
		Hash:        cheapHash,
	}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	u, err := p.CreateUser(ctx, identity.UserToCreate{Email: " Ana@Example.com ", Password: "secret1", DisplayName: "Ana Diaz"})
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z0-9]{32}$`, u.UID)
	assert.Equal(t, "ana@example.com", u.Email)

	got, err := p.GetUserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UID, got.UID)
	assert.Equal(t, "Ana Diaz", got.DisplayName)

	_, err = p.CreateUser(ctx, identity.UserToCreate{Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, identity.ErrEmailExists)

	_, err = p.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestCreate_WeakPassword(t *testing.T) {
	p := newProvider(t)
	_, err := p.CreateUser(context.Background(), identity.UserToCreate{Email: "a@b.co", Password: "123"})
	assert.ErrorIs(t, err, identity.ErrWeakPassword)

	var pe *password.PolicyError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Has(password.TooShort))
}

func TestSignInAndVerify(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	u, err := p.CreateUser(ctx, identity.UserToCreate{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, p.SetCustomClaims(ctx, u.UID, map[string]any{"role": "admin"}))

	_, err = p.SignInWithPassword(ctx, "a@b.co", "wrong-pass")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = p.SignInWithPassword(ctx, "x@b.co", "secret1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	raw, err := p.SignInWithPassword(ctx, "a@b.co", "secret1")
	require.NoError(t, err)

	tok, err := p.VerifyIDToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, u.UID, tok.UID)
	assert.Equal(t, "admin", tok.Claims["role"])

	_, err = p.VerifyIDToken(ctx, raw+"x")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	disabled := true
	_, err = p.UpdateUser(ctx, u.UID, identity.UserToUpdate{Disabled: &disabled})
	require.NoError(t, err)
	_, err = p.VerifyIDToken(ctx, raw)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_ExpiredLocalToken(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	p := newProvider(t, func(o *Options) { o.Now = func() time.Time { return now } })
	u, err := p.CreateUser(ctx, identity.UserToCreate{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	raw, err := p.SignIDToken(u.UID, u.Email)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = p.VerifyIDToken(ctx, raw)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_ExternalOIDC(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const issuer = "https://idp.example.com"
	verifier := oidc.NewVerifier(issuer,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
		&oidc.Config{ClientID: "hellousers"})
	p := newProvider(t, func(o *Options) { o.Verifier = verifier })

	u, err := p.CreateUser(ctx, identity.UserToCreate{Email: "ext@b.co", Password: "secret1"})
	require.NoError(t, err)

	sign := func(email string) string {
		claims := jwtv5.MapClaims{
			"iss":   issuer,
			"aud":   "hellousers",
			"sub":   "external-subject",
			"email": email,
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
		raw, err := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}

	tok, err := p.VerifyIDToken(ctx, sign("EXT@b.co"))
	require.NoError(t, err)
	assert.Equal(t, u.UID, tok.UID)

	_, err = p.VerifyIDToken(ctx, sign("unknown@b.co"))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestPasswordReset_SingleUse(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	u, err := p.CreateUser(ctx, identity.UserToCreate{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)

	_, err = p.PasswordResetLink(ctx, "missing@b.co")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)

	link, err := p.PasswordResetLink(ctx, "a@b.co")
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", parsed.Host)
	assert.Equal(t, "resetPassword", parsed.Query().Get("mode"))
	code := parsed.Query().Get("oobCode")
	require.NotEmpty(t, code)

	// una password débil no consume el código
	assert.ErrorIs(t, p.ConfirmPasswordReset(ctx, code, "1"), identity.ErrWeakPassword)

	require.NoError(t, p.ConfirmPasswordReset(ctx, code, "brand-new"))
	assert.ErrorIs(t, p.ConfirmPasswordReset(ctx, code, "brand-new"), identity.ErrInvalidResetCode)

	_, err = p.SignInWithPassword(ctx, "a@b.co", "secret1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	raw, err := p.SignInWithPassword(ctx, "a@b.co", "brand-new")
	require.NoError(t, err)
	tok, err := p.VerifyIDToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, u.UID, tok.UID)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	a, err := p.CreateUser(ctx, identity.UserToCreate{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	_, err = p.CreateUser(ctx, identity.UserToCreate{Email: "b@b.co", Password: "secret1"})
	require.NoError(t, err)

	taken := "b@b.co"
	_, err = p.UpdateUser(ctx, a.UID, identity.UserToUpdate{Email: &taken})
	assert.ErrorIs(t, err, identity.ErrEmailExists)

	email, name := "c@b.co", "Carla"
	got, err := p.UpdateUser(ctx, a.UID, identity.UserToUpdate{Email: &email, DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "c@b.co", got.Email)
	assert.Equal(t, "Carla", got.DisplayName)

	require.NoError(t, p.DeleteUser(ctx, a.UID))
	assert.ErrorIs(t, p.DeleteUser(ctx, a.UID), identity.ErrUserNotFound)
	assert.ErrorIs(t, p.SetCustomClaims(ctx, a.UID, nil), identity.ErrUserNotFound)
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
