package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, now *time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(Config{
		Issuer:        "hellousers",
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return iss.WithClock(func() time.Time { return *now })
}

func TestSignParse_RoundTrip(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)
	sub := Subject{UserID: "u1", Role: "admin", MetaData: MetaData{RegisteredIP: "1.2.3.4", UserAgent: "ua"}}

	tok, exp, err := iss.SignAccess(sub)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Minute), exp, time.Second)

	c, err := iss.Parse(KindAccess, tok)
	require.NoError(t, err)
	assert.Equal(t, sub, c.AsSubject())
	assert.Equal(t, "u1", c.ParamID)
	assert.NotEmpty(t, c.RegisteredClaims.ID)
}

func TestParse_KindsDoNotMix(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)

	refresh, _, err := iss.SignRefresh(Subject{UserID: "u1"})
	require.NoError(t, err)

	_, err = iss.Parse(KindAccess, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "distinct secrets")

	_, err = iss.Parse(KindRefresh, refresh)
	assert.NoError(t, err)
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)
	tok, _, err := iss.SignAccess(Subject{UserID: "u1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = iss.Parse(KindAccess, tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSign_UniqueTokens(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)
	a, _, _ := iss.SignRefresh(Subject{UserID: "u1"})
	b, _, _ := iss.SignRefresh(Subject{UserID: "u1"})
	assert.NotEqual(t, a, b)
}

func TestParse_Garbage(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &now)
	_, err := iss.Parse(KindAccess, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_RequiresDistinctSecrets(t *testing.T) {
	_, err := NewIssuer(Config{AccessSecret: "x", RefreshSecret: "x"})
	assert.Error(t, err)
	_, err = NewIssuer(Config{AccessSecret: "x"})
	assert.Error(t, err)
}
