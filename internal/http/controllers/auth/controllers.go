// Package auth contiene los controllers de /auth.
package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/auth"
	"github.com/dropDatabas3/hellousers/internal/identity"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Session  *SessionController
	Password *PasswordController
	Identity *IdentityController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, cookie helpers.CookieConfig) *Controllers {
	return &Controllers{
		Session:  NewSessionController(s.Session, cookie),
		Password: NewPasswordController(s.Password),
		Identity: NewIdentityController(s.Identity),
	}
}

// ─── Helpers ───

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidIDToken), errors.Is(err, identity.ErrInvalidCredentials):
		helpers.WriteError(w, r, httperrors.ErrInvalidTokenOrPwdEmail.WithCause(err))
	case errors.Is(err, svc.ErrUserNotFound), errors.Is(err, identity.ErrUserNotFound):
		helpers.WriteError(w, r, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrSessionNotFound):
		helpers.WriteError(w, r, httperrors.ErrSessionNotFound)
	case errors.Is(err, svc.ErrCodeNotFound):
		helpers.WriteError(w, r, httperrors.ErrCodeDoesNotExist)
	case errors.Is(err, svc.ErrCodeExpired):
		helpers.WriteError(w, r, httperrors.ErrInvalidOrExpiredCode)
	case errors.Is(err, identity.ErrWeakPassword):
		helpers.WriteError(w, r, httperrors.ErrWeakPassword)
	case errors.Is(err, identity.ErrInvalidResetCode):
		helpers.WriteError(w, r, httperrors.ErrInvalidResetCode)
	case errors.Is(err, svc.ErrResetNotSupported), errors.Is(err, svc.ErrSignInNotSupported):
		helpers.WriteError(w, r, httperrors.ErrRouteNotFound)
	case errors.Is(err, identity.ErrUnavailable):
		helpers.WriteError(w, r, httperrors.ErrServiceUnavailable.WithCause(err))
	default:
		helpers.WriteError(w, r, err)
	}
}
