// Package users contiene los controllers de /users.
package users

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/users"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/store"
)

// Controllers agrupa todos los controllers del dominio users.
type Controllers struct {
	Users   *UsersController
	Picture *PictureController
}

// NewControllers crea el agregador de controllers users.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Users:   NewUsersController(s.Users),
		Picture: NewPictureController(s.Users),
	}
}

func writeUsersError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidAuthPayload):
		helpers.WriteError(w, r, httperrors.ErrInvalidAuthPayload)
	case errors.Is(err, svc.ErrUserNotFound), errors.Is(err, store.ErrNotFound):
		helpers.WriteError(w, r, httperrors.ErrUserIDInvalid)
	case errors.Is(err, svc.ErrInvalidImage):
		helpers.WriteError(w, r, httperrors.ErrInvalidImage)
	case errors.Is(err, identity.ErrEmailExists):
		helpers.WriteError(w, r, httperrors.ErrEmailAlreadyRegistered)
	case errors.Is(err, identity.ErrWeakPassword):
		helpers.WriteError(w, r, httperrors.ErrWeakPassword)
	case errors.Is(err, identity.ErrUnavailable):
		helpers.WriteError(w, r, httperrors.ErrServiceUnavailable.WithCause(err))
	default:
		helpers.WriteError(w, r, err)
	}
}
