// Package users contiene el service de usuarios: alta (con cuenta en el
// proveedor de identidad), edición, consulta paginada, baja y foto de perfil.
package users

import (
	"context"
	"errors"

	"github.com/dropDatabas3/hellousers/internal/email"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/users"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/security/secretbox"
	"github.com/dropDatabas3/hellousers/internal/storage"
	"github.com/dropDatabas3/hellousers/internal/store"
)

// Colecciones.
const (
	Collection   = "users"
	sessionsName = "authentication"
)

// Valores fijos del alta pública.
const (
	PublicRole   = "user"
	PublicStatus = "inactive"
)

// UserService operaciones sobre users/{id}.
type UserService interface {
	// Create alta por un usuario autenticado.
	Create(ctx context.Context, in dto.CreateUserRequest, lang string) (*store.Document, error)
	// CreatePublic alta anónima: rol y status forzados.
	CreatePublic(ctx context.Context, in dto.CreateUserRequest, lang string) (*store.Document, error)
	Update(ctx context.Context, in dto.UpdateUserRequest) (*store.Document, error)
	// Get un documento (q.ID), una página (q.ItemsPerPage) o todos.
	Get(ctx context.Context, q dto.ListQuery) (any, error)
	Delete(ctx context.Context, id string) error
	UploadPicture(ctx context.Context, id string, up dto.Upload) (*store.Document, error)
}

// Deps dependencias del service.
type Deps struct {
	Store    *store.Facade
	Identity identity.Provider
	Bucket   storage.Bucket
	Mailer   *email.Mailer
	// Box descifra el campo auth (password inicial).
	Box *secretbox.Box
}

// Services agrupa los services del dominio users.
type Services struct {
	Users UserService
}

// NewServices crea el agregador de services users.
func NewServices(d Deps) Services {
	return Services{Users: NewUserService(d)}
}

// SessionsCollection users/{id}/authentication.
func SessionsCollection(id string) string {
	return store.SubCollection(Collection, id, sessionsName)
}

// Errores del dominio users.
var (
	ErrInvalidAuthPayload = errors.New("auth payload does not decrypt")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidImage       = errors.New("invalid image")
)
