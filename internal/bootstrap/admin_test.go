package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/identity/local"
	"github.com/dropDatabas3/hellousers/internal/security/password"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/store/adapters/memory"
)

func newConfig(t *testing.T) AdminConfig {
	t.Helper()
	fc := memory.NewFacade(store.Options{})
	idp, err := local.New(local.Options{
		Store:       fc,
		Cache:       cache.NewMemory("t:", time.Minute),
		TokenSecret: []byte("k"),
		Hash:        password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16},
	})
	require.NoError(t, err)
	return AdminConfig{Store: fc, Identity: idp, Out: &bytes.Buffer{}}
}

func TestEnsureAdmin_SkipPrompt(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t)
	cfg.SkipPrompt = true
	cfg.Email = " Root@Example.com "
	cfg.Password = "supersecret1"

	id, err := EnsureAdmin(ctx, cfg)
	require.NoError(t, err)

	doc, err := cfg.Store.Get(ctx, usersCollection, id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "admin", doc.String("role"))
	assert.Equal(t, "root@example.com", doc.String("email"))

	acc, err := cfg.Identity.GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, acc.UID)
	assert.Equal(t, "admin", acc.CustomClaims["role"])

	// segunda vez no hace nada
	_, err = EnsureAdmin(ctx, cfg)
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestEnsureAdmin_Prompt(t *testing.T) {
	cfg := newConfig(t)
	cfg.In = strings.NewReader("ops@example.com\nsupersecret1\nsupersecret1\n")

	id, err := EnsureAdmin(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestEnsureAdmin_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty email", "\n"},
		{"mismatch", "ops@example.com\nsupersecret1\nsupersecret2\n"},
		{"short password", "ops@example.com\nshort\nshort\n"},
		{"bad email", "nope\nsupersecret1\nsupersecret1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t)
			cfg.In = strings.NewReader(tt.input)
			_, err := EnsureAdmin(context.Background(), cfg)
			require.Error(t, err)

			ok, err := HasAdmin(context.Background(), cfg.Store)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
