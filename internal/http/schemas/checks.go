// Package schemas declara las cadenas de validación de cada endpoint.
//
// Las reglas síncronas vienen de internal/validation; acá están las
// asíncronas (unicidad y existencia) que consultan el store y el proveedor
// de identidad.
package schemas

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

// Colecciones que consultan los checks.
const (
	UsersCollection    = "users"
	ProjectsCollection = "projects"
)

// Message keys de los checks.
const (
	KeyPhoneTaken  = "PhoneAlreadyRegistered"
	KeyEmailTaken  = "EmailAlreadyRegistered"
	KeyUserIDValid = "UserIDInvalid"
	KeyUserMissing = "UserNotFound"
)

// Checks dependencias de las reglas asíncronas.
type Checks struct {
	Store    *store.Facade
	Identity identity.Provider
}

// selfID id del usuario que se está editando (update), "" en altas.
func selfID(in validation.Input) string {
	v, _ := in.Lookup(validation.Body, "user.id")
	s, _ := v.(string)
	return s
}

// othersWith reporta si hay otro documento de users con field == v.
func (c Checks) othersWith(ctx context.Context, field string, v any, self string) (bool, error) {
	f := store.Where(field, store.OpEqual, v)
	docs, err := c.Store.List(ctx, UsersCollection, &f, nil)
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if d.ID != self {
			return true, nil
		}
	}
	return false, nil
}

// UniquePhone 409 si otro usuario ya tiene el teléfono.
func (c Checks) UniquePhone() validation.Rule {
	return validation.Custom("uniquePhone", http.StatusConflict, KeyPhoneTaken,
		func(ctx context.Context, v any, in validation.Input) (bool, error) {
			taken, err := c.othersWith(ctx, "phone", v, selfID(in))
			return !taken, err
		})
}

// UniqueEmail 409 si el email existe en el proveedor de identidad o en otro
// documento de users.
func (c Checks) UniqueEmail() validation.Rule {
	return validation.Custom("uniqueEmail", http.StatusConflict, KeyEmailTaken,
		func(ctx context.Context, v any, in validation.Input) (bool, error) {
			email, _ := v.(string)
			email = identity.NormalizeEmail(email)
			self := selfID(in)

			u, err := c.Identity.GetUserByEmail(ctx, email)
			switch {
			case err == nil && u.UID != self:
				return false, nil
			case err != nil && !errors.Is(err, identity.ErrUserNotFound):
				return false, err
			}
			taken, err := c.othersWith(ctx, "email", email, self)
			return !taken, err
		})
}

// UserExists 404 UserIDInvalid si no hay documento users/{v}.
func (c Checks) UserExists() validation.Rule {
	return validation.Custom("userExists", http.StatusNotFound, KeyUserIDValid,
		func(ctx context.Context, v any, _ validation.Input) (bool, error) {
			id, _ := v.(string)
			doc, err := c.Store.Get(ctx, UsersCollection, strings.TrimSpace(id))
			return doc != nil, err
		})
}

// IdentityEmailExists 404 UserNotFound si el email no tiene cuenta.
func (c Checks) IdentityEmailExists() validation.Rule {
	return validation.Custom("identityExists", http.StatusNotFound, KeyUserMissing,
		func(ctx context.Context, v any, _ validation.Input) (bool, error) {
			email, _ := v.(string)
			_, err := c.Identity.GetUserByEmail(ctx, email)
			if errors.Is(err, identity.ErrUserNotFound) {
				return false, nil
			}
			return err == nil, err
		})
}

// IdentityEmailFree 409 si el email ya tiene cuenta.
func (c Checks) IdentityEmailFree() validation.Rule {
	return validation.Custom("identityFree", http.StatusConflict, KeyEmailTaken,
		func(ctx context.Context, v any, _ validation.Input) (bool, error) {
			email, _ := v.(string)
			_, err := c.Identity.GetUserByEmail(ctx, email)
			if errors.Is(err, identity.ErrUserNotFound) {
				return true, nil
			}
			return false, err
		})
}
