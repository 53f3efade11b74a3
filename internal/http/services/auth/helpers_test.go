package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/email"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/identity/local"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/security/password"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/store/adapters/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Now().UTC().Truncate(time.Millisecond)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	clock  *clock
	store  *store.Facade
	idp    *local.Provider
	outbox *email.Outbox
	deps   Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := newClock()
	fc := memory.NewFacade(store.Options{Now: clk.Now})
	idp, err := local.New(local.Options{
		Store:       fc,
		Cache:       cache.NewMemory("t:", time.Minute),
		TokenSecret: []byte("id-secret"),
		Hash:        password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16},
	})
	require.NoError(t, err)
	issuer, err := jwtx.NewIssuer(jwtx.Config{Issuer: "test", AccessSecret: "access", RefreshSecret: "refresh"})
	require.NoError(t, err)
	renderer, err := email.NewRenderer(nil)
	require.NoError(t, err)

	outbox := &email.Outbox{}
	return &env{
		clock:  clk,
		store:  fc,
		idp:    idp,
		outbox: outbox,
		deps: Deps{
			Store:    fc,
			Identity: idp,
			Issuer:   issuer,
			Mailer:   &email.Mailer{Sender: outbox, Renderer: renderer},
			Now:      clk.Now,
		},
	}
}

// seed crea la cuenta y users/{uid}.
func (e *env) seed(t *testing.T, addr string) string {
	t.Helper()
	ctx := context.Background()
	acc, err := e.idp.CreateUser(ctx, identity.UserToCreate{Email: addr, Password: "secret123", DisplayName: "Ana Diaz"})
	require.NoError(t, err)
	_, err = e.store.Create(ctx, UsersCollection, map[string]any{
		"firstName": "Ana", "lastName": "Diaz", "email": addr, "role": "admin", "status": "inactive",
	}, acc.UID)
	require.NoError(t, err)
	return acc.UID
}

type failingSender struct{}

func (failingSender) Send(string, string, string, string) error { return errors.New("smtp down") }
