// Package auth contiene los services de autenticación: sesiones (login,
// logout, refresh), códigos de verificación y reset de contraseña.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/hellousers/internal/email"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/identity"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	"github.com/dropDatabas3/hellousers/internal/store"
)

// Colecciones.
const (
	UsersCollection = "users"
	CodesCollection = "verificationCodes"
	sessionsName    = "authentication"
)

// SessionsCollection users/{id}/authentication.
func SessionsCollection(userID string) string {
	return store.SubCollection(UsersCollection, userID, sessionsName)
}

// SessionService login, logout y refresh.
type SessionService interface {
	// Login verifica el ID token del proveedor y abre una sesión.
	Login(ctx context.Context, in dto.LoginRequest, origin dto.Origin) (*dto.SessionResult, error)
	// Logout cierra la sesión cuyo refresh token es raw.
	Logout(ctx context.Context, claims *jwtx.Claims, raw string) error
	// Refresh reemite el access token (y el refresh si hay rotación).
	Refresh(ctx context.Context, claims *jwtx.Claims, raw string, origin dto.Origin) (*dto.SessionResult, error)
}

// PasswordService códigos de verificación y reset.
type PasswordService interface {
	SendCode(ctx context.Context, in dto.PasswordCodeRequest, lang string) error
	ResetPassword(ctx context.Context, in dto.ResetPasswordRequest, lang string) error
	// ConfirmReset solo si el proveedor lo soporta (ver CanConfirm).
	ConfirmReset(ctx context.Context, in dto.ConfirmResetRequest) error
	CanConfirm() bool
	// PurgeExpired borra códigos más viejos que la ventana. Retorna cuántos.
	PurgeExpired(ctx context.Context) (int, error)
}

// IdentityService sign-in contra el proveedor local.
type IdentityService interface {
	SignIn(ctx context.Context, in dto.IdentityTokenRequest) (*dto.IdentityTokenResponse, error)
	Supported() bool
}

// Deps dependencias de los services auth.
type Deps struct {
	Store    *store.Facade
	Identity identity.Provider
	Issuer   *jwtx.Issuer
	Mailer   *email.Mailer
	Metrics  *metrics.Metrics

	// CodeTTL ventana de validez del código (default 10m).
	CodeTTL time.Duration
	// RotateRefresh reemplaza el refresh token en cada refresh.
	RotateRefresh bool

	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.CodeTTL <= 0 {
		d.CodeTTL = 10 * time.Minute
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Session  SessionService
	Password PasswordService
	Identity IdentityService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	return Services{
		Session:  NewSessionService(d),
		Password: NewPasswordService(d),
		Identity: NewIdentityService(d),
	}
}

// Errores del dominio auth.
var (
	ErrInvalidIDToken     = errors.New("invalid id token")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrResetNotSupported  = errors.New("password reset confirmation not supported")
	ErrSignInNotSupported = errors.New("password sign-in not supported")
)
