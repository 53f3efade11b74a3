package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// BreakerConfig umbrales del circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Breaker envuelve un Provider con gobreaker. Los errores de cliente
// (not found, token inválido, email duplicado) no cuentan como falla.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker arma el breaker sobre next.
func NewBreaker(next Provider, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "identity." + next.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.L().Warn("circuit breaker state",
				logger.Component(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State "closed" | "half-open" | "open".
func (b *Breaker) State() string { return b.cb.State().String() }

// Ready false con el breaker abierto (readyz).
func (b *Breaker) Ready() bool { return b.cb.State() != gobreaker.StateOpen }

// Unwrap proveedor envuelto.
func (b *Breaker) Unwrap() Provider { return b.next }

func (b *Breaker) Name() string { return b.next.Name() }

func run[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (b *Breaker) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	return run(b, func() (*Token, error) { return b.next.VerifyIDToken(ctx, idToken) })
}

func (b *Breaker) GetUser(ctx context.Context, uid string) (*User, error) {
	return run(b, func() (*User, error) { return b.next.GetUser(ctx, uid) })
}

func (b *Breaker) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return run(b, func() (*User, error) { return b.next.GetUserByEmail(ctx, email) })
}

func (b *Breaker) CreateUser(ctx context.Context, u UserToCreate) (*User, error) {
	return run(b, func() (*User, error) { return b.next.CreateUser(ctx, u) })
}

func (b *Breaker) UpdateUser(ctx context.Context, uid string, u UserToUpdate) (*User, error) {
	return run(b, func() (*User, error) { return b.next.UpdateUser(ctx, uid, u) })
}

func (b *Breaker) DeleteUser(ctx context.Context, uid string) error {
	_, err := run(b, func() (struct{}, error) { return struct{}{}, b.next.DeleteUser(ctx, uid) })
	return err
}

func (b *Breaker) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	_, err := run(b, func() (struct{}, error) { return struct{}{}, b.next.SetCustomClaims(ctx, uid, claims) })
	return err
}

func (b *Breaker) PasswordResetLink(ctx context.Context, email string) (string, error) {
	return run(b, func() (string, error) { return b.next.PasswordResetLink(ctx, email) })
}

// ConfirmPasswordReset delega si el proveedor lo soporta.
func (b *Breaker) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	rc, ok := b.next.(ResetConfirmer)
	if !ok {
		return fmt.Errorf("identity: %s does not confirm resets", b.next.Name())
	}
	_, err := run(b, func() (struct{}, error) { return struct{}{}, rc.ConfirmPasswordReset(ctx, oobCode, newPassword) })
	return err
}

// SignInWithPassword delega si el proveedor lo soporta.
func (b *Breaker) SignInWithPassword(ctx context.Context, email, password string) (string, error) {
	ps, ok := b.next.(PasswordSigner)
	if !ok {
		return "", fmt.Errorf("identity: %s does not sign in with password", b.next.Name())
	}
	return run(b, func() (string, error) { return ps.SignInWithPassword(ctx, email, password) })
}

// AsResetConfirmer retorna el confirmer si p (o lo que envuelve) lo soporta.
func AsResetConfirmer(p Provider) (ResetConfirmer, bool) {
	if b, ok := p.(*Breaker); ok {
		if _, ok := b.next.(ResetConfirmer); !ok {
			return nil, false
		}
		return b, true
	}
	rc, ok := p.(ResetConfirmer)
	return rc, ok
}

// AsPasswordSigner idem AsResetConfirmer para PasswordSigner.
func AsPasswordSigner(p Provider) (PasswordSigner, bool) {
	if b, ok := p.(*Breaker); ok {
		if _, ok := b.next.(PasswordSigner); !ok {
			return nil, false
		}
		return b, true
	}
	ps, ok := p.(PasswordSigner)
	return ps, ok
}
