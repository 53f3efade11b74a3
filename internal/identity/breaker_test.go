package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	Provider
	calls int
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) GetUser(_ context.Context, uid string) (*User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &User{UID: uid}, nil
}

func (s *stubProvider) ConfirmPasswordReset(context.Context, string, string) error { return s.err }

func TestBreaker_OpensOnFailures(t *testing.T) {
	stub := &stubProvider{err: errors.New("timeout")}
	b := NewBreaker(stub, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.GetUser(ctx, "u1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", b.State())
	assert.False(t, b.Ready())

	_, err := b.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the provider")
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	stub := &stubProvider{err: ErrUserNotFound}
	b := NewBreaker(stub, BreakerConfig{MaxFailures: 1})
	for i := 0; i < 3; i++ {
		_, err := b.GetUser(context.Background(), "u1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassThrough(t *testing.T) {
	b := NewBreaker(&stubProvider{}, BreakerConfig{})
	u, err := b.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, "stub", b.Name())
}

func TestAsResetConfirmer(t *testing.T) {
	b := NewBreaker(&stubProvider{}, BreakerConfig{})
	rc, ok := AsResetConfirmer(b)
	require.True(t, ok)
	assert.NoError(t, rc.ConfirmPasswordReset(context.Background(), "c", "p"))

	_, ok = AsPasswordSigner(b)
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana Diaz", DisplayName(" Ana ", "Diaz"))
	assert.Equal(t, "Ana", DisplayName("Ana", ""))
}
